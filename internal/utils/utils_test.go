package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestGenerateIDs(t *testing.T) {
	correlationID := GenerateCorrelationID()
	if correlationID == "" {
		t.Error("Expected non-empty correlation ID")
	}

	requestID := GenerateRequestID()
	if requestID == "" {
		t.Error("Expected non-empty request ID")
	}

	// Check that IDs are different
	if correlationID == requestID {
		t.Error("Correlation ID and request ID should be different")
	}
}

func TestContextValues(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr")
	ctx = WithRequestID(ctx, "req")
	ctx = WithIdentity(ctx, "1.2.3.4")

	if GetCorrelationID(ctx) != "corr" {
		t.Errorf("Expected correlation ID 'corr', got '%s'", GetCorrelationID(ctx))
	}
	if GetRequestID(ctx) != "req" {
		t.Errorf("Expected request ID 'req', got '%s'", GetRequestID(ctx))
	}
	if GetIdentity(ctx) != "1.2.3.4" {
		t.Errorf("Expected identity '1.2.3.4', got '%s'", GetIdentity(ctx))
	}
	if GetIdentity(context.Background()) != "" {
		t.Error("Expected empty identity on bare context")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("yt-dlp exited with status 1")

	testCases := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{name: "Invalid input", err: NewInvalidInputError(MessageURLRequired, nil), code: ErrorCodeInvalidInput, status: http.StatusBadRequest},
		{name: "Unavailable media", err: NewUnavailableMediaError(cause), code: ErrorCodeUnavailableMedia, status: http.StatusInternalServerError},
		{name: "Unavailable playlist", err: NewPlaylistUnavailableError(cause), code: ErrorCodeUnavailableMedia, status: http.StatusInternalServerError},
		{name: "Not a playlist", err: NewNotAPlaylistError("https://youtu.be/abc"), code: ErrorCodeNotAPlaylist, status: http.StatusBadRequest},
		{name: "Too long", err: NewTooLongError(900, 600), code: ErrorCodeTooLong, status: http.StatusBadRequest},
		{name: "Extraction failed", err: NewExtractionFailedError(cause), code: ErrorCodeExtractionFailed, status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("Expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.StatusCode != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, tc.err.StatusCode)
			}
			if strings.Contains(tc.err.Message, cause.Error()) {
				t.Error("User-facing message must not contain diagnostic detail")
			}
		})
	}
}

func TestTooLongMessageContainsMinutes(t *testing.T) {
	err := NewTooLongError(900, 600)
	if !strings.Contains(err.Message, "15 minutes") {
		t.Errorf("Expected message to contain video minutes, got %q", err.Message)
	}
	if !strings.Contains(err.Message, "10 minutes") {
		t.Errorf("Expected message to contain max minutes, got %q", err.Message)
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("pipeline: %w", NewExtractionFailedError(cause))

	if !HasCode(wrapped, ErrorCodeExtractionFailed) {
		t.Error("Expected wrapped error to carry EXTRACTION_FAILED")
	}
	if HasCode(wrapped, ErrorCodeTooLong) {
		t.Error("Did not expect TOO_LONG code")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
}
