package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/audiograb/internal/config"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

// Pinger is an optional backend that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	runtime    config.RuntimeConfig
	scratchDir string
	backends   map[string]Pinger
	startTime  time.Time
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Message   string                   `json:"message"`
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
}

type ServiceHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewHealthHandler takes the optional backends keyed by name; nil
// entries are skipped.
func NewHealthHandler(runtime config.RuntimeConfig, scratchDir string, backends map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger)
	for name, b := range backends {
		if b != nil {
			active[name] = b
		}
	}
	return &HealthHandler{
		runtime:    runtime,
		scratchDir: scratchDir,
		backends:   active,
		startTime:  time.Now(),
	}
}

// Root godoc
// @Summary Service status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"message":  fmt.Sprintf("API is running on %s", h.runtime.Platform),
		"mode":     h.runtime.Mode,
		"platform": h.runtime.Platform,
	})
}

// Health godoc
// @Summary Health check endpoint
// @Description Check the scratch directory and any configured cache or archive backend
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	response := HealthResponse{
		Status:    "ok",
		Message:   "Server is healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   "1.0.0",
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Services:  make(map[string]ServiceHealth),
	}

	response.Services["scratch_dir"] = h.timed(func() error { return checkWritable(h.scratchDir) })
	for name, backend := range h.backends {
		b := backend
		response.Services[name] = h.timed(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return b.Ping(checkCtx)
		})
	}

	for name, service := range response.Services {
		if service.Status != "healthy" {
			utils.LogWarn(ctx, "Health check failed", utils.Fields{"service": name, "error": service.Error})
			response.Status = "unhealthy"
			response.Message = "One or more dependencies are unavailable"
		}
	}

	if response.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Readiness godoc
// @Summary Readiness check endpoint
// @Description Check if the service is ready to accept downloads
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ready := true
	checks := make(map[string]interface{})

	if err := checkWritable(h.scratchDir); err != nil {
		ready = false
		checks["scratch_dir"] = map[string]interface{}{
			"ready": false,
			"error": err.Error(),
		}
	} else {
		checks["scratch_dir"] = map[string]interface{}{
			"ready": true,
		}
	}

	for name, backend := range h.backends {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		err := backend.Ping(checkCtx)
		cancel()

		if err != nil {
			ready = false
			checks[name] = map[string]interface{}{
				"ready": false,
				"error": err.Error(),
			}
			continue
		}
		checks[name] = map[string]interface{}{
			"ready": true,
		}
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	if ready {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// Liveness godoc
// @Summary Liveness check endpoint
// @Description Check if the service is alive
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	// Simple liveness check - if this endpoint responds, the service is alive
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) timed(check func() error) ServiceHealth {
	start := time.Now()
	err := check()
	responseTime := time.Since(start).String()

	if err != nil {
		return ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ServiceHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// checkWritable creates the scratch directory if needed and verifies a
// file can be written into it.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("cannot write to %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
