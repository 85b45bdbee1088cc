package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/audiograb/internal/config"
	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id":     c.GetString("request_id"),
			"correlation_id": utils.GetCorrelationID(c.Request.Context()),
		})
	})
	return engine
}

func TestCorrelationID(t *testing.T) {
	engine := newEngine(CorrelationIDMiddleware())

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if w.Header().Get("X-Correlation-ID") == "" || w.Header().Get("X-Request-ID") == "" {
			t.Error("Expected correlation and request ID headers")
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Correlation-ID", "abc-123")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["correlation_id"] != "abc-123" {
			t.Errorf("Expected propagated correlation ID, got %q", body["correlation_id"])
		}
		if body["request_id"] != w.Header().Get("X-Request-ID") {
			t.Error("Request ID in context and header differ")
		}
	})
}

func TestRateLimit(t *testing.T) {
	cfg := &config.APIConfig{RateLimitRequests: 1, RateLimitWindow: time.Hour, RateLimitBurst: 2}
	limiter := NewRateLimiter(cfg)
	defer limiter.Stop()
	engine := newEngine(CorrelationIDMiddleware(), limiter.Middleware())

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("Request %d within burst got %d", i+1, w.Code)
		}
	}

	w := send("10.0.0.1:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Error || body.Code != string(utils.ErrorCodeRateLimitExceeded) || body.RequestID == "" {
		t.Errorf("Unexpected 429 body %+v", body)
	}

	if w := send("10.0.0.2:1000"); w.Code != http.StatusOK {
		t.Errorf("Other clients must have their own bucket, got %d", w.Code)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(&config.APIConfig{RateLimitRequests: 10, RateLimitWindow: time.Minute, RateLimitBurst: 1})
	defer limiter.Stop()

	limiter.isAllowed("10.0.0.1")
	limiter.isAllowed("10.0.0.2")
	limiter.visitors["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Minute)

	limiter.evictIdle(time.Now())

	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("Expected idle visitor to be evicted")
	}
	if _, ok := limiter.visitors["10.0.0.2"]; !ok {
		t.Error("Expected active visitor to be kept")
	}
}

func TestRateLimiterStopEndsCleanup(t *testing.T) {
	before := runtime.NumGoroutine()

	limiters := make([]*RateLimiter, 20)
	for i := range limiters {
		limiters[i] = NewRateLimiter(&config.APIConfig{RateLimitRequests: 1, RateLimitWindow: time.Hour})
	}
	for _, l := range limiters {
		l.Stop()
		l.Stop()
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before {
		t.Errorf("Expected cleanup goroutines to exit, %d still running above baseline %d", got-before, before)
	}
}

func TestCORS(t *testing.T) {
	cfg := &config.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Requires-Ad"},
		MaxAge:         600,
	}
	engine := newEngine(CORSMiddleware(cfg))
	engine.OPTIONS("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("Simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:8081")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Expected wildcard origin, got %q", got)
		}
		if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Content-Disposition, X-Requires-Ad" {
			t.Errorf("Unexpected exposed headers %q", got)
		}
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:8081")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
			t.Errorf("Unexpected allowed methods %q", got)
		}
	})

	t.Run("Listed origin with credentials", func(t *testing.T) {
		strict := &config.CORSConfig{
			Enabled:          true,
			AllowedOrigins:   []string{"https://app.example.com"},
			AllowCredentials: true,
		}
		engine := newEngine(CORSMiddleware(strict))

		for origin, expected := range map[string]string{
			"https://app.example.com":  "https://app.example.com",
			"https://evil.example.com": "",
		} {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != expected {
				t.Errorf("Origin %s: expected %q, got %q", origin, expected, got)
			}
		}
	})
}
