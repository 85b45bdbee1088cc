package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/services/downloader"
	"github.com/denisAlshanov/audiograb/internal/services/resolver"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

const (
	defaultQuality = "low"
	defaultFormat  = "mp3"
)

type YouTubeHandler struct {
	metadata  MetadataResolver
	playlists PlaylistResolver
	acquirer  Acquirer
}

func NewYouTubeHandler(metadata MetadataResolver, playlists PlaylistResolver, acquirer Acquirer) *YouTubeHandler {
	return &YouTubeHandler{
		metadata:  metadata,
		playlists: playlists,
		acquirer:  acquirer,
	}
}

// Info godoc
// @Summary Get video or playlist information
// @Description Resolve metadata for a single video, or list the members of a playlist URL
// @Tags youtube
// @Produce json
// @Param url query string true "Video or playlist URL"
// @Success 200 {object} models.InfoResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/youtube/info [get]
func (h *YouTubeHandler) Info(c *gin.Context) {
	ctx := c.Request.Context()

	url := c.Query("url")
	if url == "" {
		errorResponse(c, utils.NewInvalidInputError(utils.MessageURLRequired, nil))
		return
	}

	if resolver.IsPlaylistURL(url) {
		playlist, err := h.playlists.Resolve(ctx, url)
		if err != nil {
			errorResponse(c, err)
			return
		}
		c.JSON(http.StatusOK, models.InfoResponse{Success: true, Data: playlist})
		return
	}

	metadata, err := h.metadata.Resolve(ctx, url)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InfoResponse{
		Success: true,
		Data:    models.VideoInfoData{IsPlaylist: false, VideoMetadata: metadata},
	})
}

// Download godoc
// @Summary Download a video as audio
// @Description Convert a single video to an audio file and stream it. Ad gate state is returned in the X-Requires-Ad, X-Downloads-Count and X-Downloads-Until-Ad headers.
// @Tags youtube
// @Produce audio/mpeg
// @Produce audio/mp4
// @Param url query string true "Video URL"
// @Param quality query string false "high, medium or low" default(low)
// @Param format query string false "mp3, m4a or mp4" default(mp3)
// @Param addMetadata query bool false "Embed tags and cover art" default(false)
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/youtube/download [get]
func (h *YouTubeHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	url := c.Query("url")
	if url == "" {
		errorResponse(c, utils.NewInvalidInputError(utils.MessageURLRequired, nil))
		return
	}

	addMetadata, _ := strconv.ParseBool(c.DefaultQuery("addMetadata", "false"))
	identity := clientIdentity(c)

	req := models.DownloadRequest{
		URL:         url,
		Quality:     c.DefaultQuery("quality", defaultQuality),
		Format:      c.DefaultQuery("format", defaultFormat),
		AddMetadata: addMetadata,
		Identity:    identity,
	}

	ctx = utils.WithIdentity(ctx, identity)
	err := h.acquirer.Run(ctx, req, func(ctx context.Context, d *downloader.Delivery) error {
		return sendArtifact(c, d)
	})
	if err != nil && !c.Writer.Written() {
		errorResponse(c, err)
	}
}

func sendArtifact(c *gin.Context, d *downloader.Delivery) error {
	file, err := os.Open(d.Artifact.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.Artifact.FileName))
	c.Header("Content-Type", d.Artifact.ContentType)
	c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
	c.Header("X-Requires-Ad", strconv.FormatBool(d.AdStatus.RequiresAd))
	c.Header("X-Downloads-Count", strconv.FormatUint(d.AdStatus.Count, 10))
	c.Header("X-Downloads-Until-Ad", strconv.FormatUint(d.AdStatus.DownloadsUntilAd, 10))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, file); err != nil {
		return fmt.Errorf("failed to stream artifact: %w", err)
	}
	return nil
}
