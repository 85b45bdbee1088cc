package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrorCodeUnavailableMedia     ErrorCode = "UNAVAILABLE_MEDIA"
	ErrorCodeNotAPlaylist         ErrorCode = "NOT_A_PLAYLIST"
	ErrorCodeTooLong              ErrorCode = "TOO_LONG"
	ErrorCodeExtractionFailed     ErrorCode = "EXTRACTION_FAILED"
	ErrorCodeTagWriteFailed       ErrorCode = "TAG_WRITE_FAILED"
	ErrorCodeThumbnailFetchFailed ErrorCode = "THUMBNAIL_FETCH_FAILED"
	ErrorCodeRateLimitExceeded    ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternalError        ErrorCode = "INTERNAL_ERROR"
)

// User-facing messages. Diagnostic detail stays in Cause and the logs.
const (
	MessageVideoUnavailable    = "Could not get video information. Check that the video is available."
	MessagePlaylistUnavailable = "Could not get playlist information. Check that the playlist is available and public."
	MessageDownloadFailed      = "Could not download the video. Check that the video is available."
	MessageNotAPlaylist        = "The provided URL is not a playlist"
	MessageURLRequired         = "URL parameter is required"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func wrapError(code ErrorCode, message string, statusCode int, cause error) *AppError {
	appErr := NewError(code, message, statusCode)
	appErr.Cause = cause
	return appErr
}

// AsAppError extracts an *AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Common error constructors
func NewInvalidInputError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeInvalidInput, message, http.StatusBadRequest, details)
}

func NewUnavailableMediaError(cause error) *AppError {
	return wrapError(ErrorCodeUnavailableMedia, MessageVideoUnavailable, http.StatusInternalServerError, cause)
}

func NewPlaylistUnavailableError(cause error) *AppError {
	return wrapError(ErrorCodeUnavailableMedia, MessagePlaylistUnavailable, http.StatusInternalServerError, cause)
}

func NewNotAPlaylistError(url string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeNotAPlaylist,
		MessageNotAPlaylist,
		http.StatusBadRequest,
		map[string]interface{}{
			"provided": url,
		},
	)
}

// NewTooLongError reports a duration policy violation. The minute figures
// are part of the user-facing message.
func NewTooLongError(durationSeconds, maxSeconds int) *AppError {
	return NewErrorWithDetails(
		ErrorCodeTooLong,
		fmt.Sprintf("Video too long! Maximum allowed duration: %d minutes. Video duration: %d minutes.",
			maxSeconds/60, durationSeconds/60),
		http.StatusBadRequest,
		map[string]interface{}{
			"duration_seconds":     durationSeconds,
			"max_duration_seconds": maxSeconds,
		},
	)
}

func NewExtractionFailedError(cause error) *AppError {
	return wrapError(ErrorCodeExtractionFailed, MessageDownloadFailed, http.StatusInternalServerError, cause)
}

func NewTagWriteError(cause error) *AppError {
	return wrapError(ErrorCodeTagWriteFailed, "Failed to write audio tags", http.StatusInternalServerError, cause)
}

func NewThumbnailFetchError(cause error) *AppError {
	return wrapError(ErrorCodeThumbnailFetchFailed, "Failed to download thumbnail", http.StatusBadGateway, cause)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
