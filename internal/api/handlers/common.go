package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/services/downloader"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

// MetadataResolver resolves single-video metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, url string) (*models.VideoMetadata, error)
}

// PlaylistResolver lists playlist members.
type PlaylistResolver interface {
	Resolve(ctx context.Context, url string) (*models.PlaylistInfo, error)
}

// Acquirer runs the download pipeline.
type Acquirer interface {
	Run(ctx context.Context, req models.DownloadRequest, deliver downloader.DeliverFunc) error
}

// AdmissionGate is the per-identity download counter.
type AdmissionGate interface {
	AcknowledgeAd(identity string) models.AdAckResponse
	QueryStatus(identity string) models.AdStatus
}

// clientIdentity scopes counters to the caller address.
func clientIdentity(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return models.UnknownIdentity
}

// errorResponse writes the error body. Errors outside the taxonomy are
// reported as internal errors; their detail only reaches the log.
func errorResponse(c *gin.Context, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok {
		utils.LogError(c.Request.Context(), "Unhandled error", err)
		appErr = utils.NewInternalError()
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, models.ErrorResponse{
		Error:     true,
		Code:      string(appErr.Code),
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
