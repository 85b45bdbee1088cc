// Package downloader turns a video URL into a delivered audio artifact.
package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/denisAlshanov/audiograb/internal/config"
	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/services/admission"
	"github.com/denisAlshanov/audiograb/internal/services/resolver"
	"github.com/denisAlshanov/audiograb/internal/services/storage"
	"github.com/denisAlshanov/audiograb/internal/services/tagger"
	"github.com/denisAlshanov/audiograb/internal/services/youtube"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

// Delivery is handed to the caller once the artifact is ready to stream.
type Delivery struct {
	Artifact *models.Artifact
	Metadata *models.VideoMetadata
	AdStatus models.AdStatus
}

// DeliverFunc streams the artifact to the client. The file is only
// guaranteed to exist until DeliverFunc returns.
type DeliverFunc func(ctx context.Context, d *Delivery) error

type Downloader struct {
	gate       *admission.Gate
	resolver   *resolver.MetadataResolver
	extractor  youtube.Extractor
	tagger     tagger.TagWriter
	archive    storage.Archive
	httpClient *http.Client
	config     *config.DownloadConfig
	semaphore  chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

func NewDownloader(
	gate *admission.Gate,
	resolver *resolver.MetadataResolver,
	extractor youtube.Extractor,
	tagWriter tagger.TagWriter,
	archive storage.Archive,
	cfg *config.DownloadConfig,
) *Downloader {
	slots := cfg.MaxConcurrentExtractions
	if slots < 1 {
		slots = 1
	}
	return &Downloader{
		gate:       gate,
		resolver:   resolver,
		extractor:  extractor,
		tagger:     tagWriter,
		archive:    archive,
		httpClient: &http.Client{Timeout: cfg.ThumbnailTimeout},
		config:     cfg,
		semaphore:  make(chan struct{}, slots),
		pending:    make(map[string]*time.Timer),
	}
}

// Run executes the acquisition stages in order. Any failure before the
// artifact exists aborts the request; thumbnail and tagging failures are
// logged and skipped. Once the artifact exists its deletion is scheduled
// whatever happens to the delivery.
func (d *Downloader) Run(ctx context.Context, req models.DownloadRequest, deliver DeliverFunc) error {
	start := time.Now()

	if err := validateURL(req.URL); err != nil {
		return err
	}

	// Stage 1: negotiation
	quality := NegotiateQuality(req.Quality)
	format, contentType := NegotiateFormat(req.Format)

	// Stage 2: admission, counted before any heavy work
	identity := req.Identity
	if identity == "" {
		identity = models.UnknownIdentity
	}
	adStatus := d.gate.RecordDownload(identity)

	logFields := utils.Fields{
		"url":        req.URL,
		"quality":    quality,
		"format":     format,
		"identity":   identity,
		"ad_count":   adStatus.Count,
		"requiresAd": adStatus.RequiresAd,
	}
	utils.LogInfo(ctx, "Starting download", logFields)

	// Stage 3: metadata
	infoStart := time.Now()
	metadata, err := d.resolver.Resolve(ctx, req.URL)
	if err != nil {
		return err
	}
	// Cached metadata skips the resolver's duration check.
	if err := d.resolver.Policy().Check(metadata.Duration); err != nil {
		return err
	}
	infoElapsed := utils.Elapsed(infoStart)

	// Stage 4: artifact path
	artifact, err := d.newArtifact(metadata.Title, format, contentType)
	if err != nil {
		utils.LogError(ctx, "Failed to prepare scratch directory", err, logFields)
		return utils.NewExtractionFailedError(err)
	}

	// Stage 5: extraction
	extractStart := time.Now()
	if err := d.extract(ctx, req.URL, artifact, quality); err != nil {
		utils.LogError(ctx, "Error downloading video", err, logFields)
		d.removePartial(ctx, artifact.FilePath)
		return utils.NewExtractionFailedError(err)
	}
	extractElapsed := utils.Elapsed(extractStart)

	// From here on the artifact exists and must be cleaned up.
	defer d.scheduleCleanup(ctx, artifact.FilePath)

	// Stage 6: thumbnail, best effort
	thumbStart := time.Now()
	cover := d.fetchThumbnail(ctx, metadata.Thumbnail)
	thumbElapsed := utils.Elapsed(thumbStart)

	// Stage 7: tags, only on request
	tagElapsed := "skipped"
	if req.AddMetadata {
		tagStart := time.Now()
		tags := buildTags(metadata, cover, time.Now())
		if err := d.tagger.WriteTags(ctx, artifact.FilePath, tags); err != nil {
			appErr := utils.NewTagWriteError(err)
			utils.LogWarn(ctx, "Failed to write audio tags", utils.Fields{
				"code":  appErr.Code,
				"path":  artifact.FilePath,
				"error": err.Error(),
			})
		}
		tagElapsed = utils.Elapsed(tagStart)
	}

	d.archiveArtifact(ctx, artifact, metadata)

	// Stage 8: delivery
	sendStart := time.Now()
	deliverErr := deliver(ctx, &Delivery{
		Artifact: artifact,
		Metadata: metadata,
		AdStatus: adStatus,
	})

	utils.LogInfo(ctx, "Download completed", utils.Fields{
		"title":          metadata.Title,
		"file":           artifact.FileName,
		"info_elapsed":   infoElapsed,
		"extract":        extractElapsed,
		"thumbnail":      thumbElapsed,
		"tagging":        tagElapsed,
		"send_elapsed":   utils.Elapsed(sendStart),
		"total_elapsed":  utils.Elapsed(start),
		"delivery_error": deliverErr != nil,
	})

	if deliverErr != nil {
		utils.LogError(ctx, "Error sending file", deliverErr, utils.Fields{"path": artifact.FilePath})
		return fmt.Errorf("failed to deliver artifact: %w", deliverErr)
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return utils.NewInvalidInputError(utils.MessageURLRequired, nil)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return utils.NewInvalidInputError("Invalid URL", map[string]interface{}{"url": raw})
	}
	return nil
}

// newArtifact reserves a unique path in the scratch directory. The UUIDv7
// prefix keeps names unique and time ordered under concurrency.
func (d *Downloader) newArtifact(title string, format models.AudioFormat, contentType string) (*models.Artifact, error) {
	if err := os.MkdirAll(d.config.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", d.config.TempDir, err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate artifact id: %w", err)
	}

	name := SanitizeFileName(title)
	ext := "." + string(format)

	return &models.Artifact{
		FilePath:    filepath.Join(d.config.TempDir, id.String()+"_"+name+ext),
		FileName:    name + ext,
		Format:      format,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}, nil
}

// extract waits for an extraction slot, then runs the extractor detached
// from the request so a client disconnect does not kill the tool mid-write.
func (d *Downloader) extract(ctx context.Context, url string, artifact *models.Artifact, quality int) error {
	select {
	case d.semaphore <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("request cancelled while waiting for an extraction slot: %w", ctx.Err())
	}
	defer func() { <-d.semaphore }()

	err := d.extractor.ExtractAudio(context.WithoutCancel(ctx), url, youtube.AudioOptions{
		Format:     string(artifact.Format),
		Quality:    quality,
		OutputPath: artifact.FilePath,
	})
	if err != nil {
		return err
	}

	info, err := os.Stat(artifact.FilePath)
	if err != nil {
		return fmt.Errorf("extractor reported success but produced no file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("extractor produced an empty file")
	}
	return nil
}

// removePartial deletes whatever a failed extraction left behind,
// including the tool's intermediate files sharing the artifact's stem.
func (d *Downloader) removePartial(ctx context.Context, path string) {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	matches, err := filepath.Glob(globEscape(stem) + "*")
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			utils.LogWarn(ctx, "Failed to remove partial artifact", utils.Fields{"path": m, "error": err.Error()})
		}
	}
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
