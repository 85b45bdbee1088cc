package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/services/tagger"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

const (
	tagAlbum        = "YouTube"
	tagGenre        = "Music"
	unknownArtist   = "Unknown Artist"
	maxCommentRunes = 500
	archiveTimeout  = 5 * time.Minute
)

func buildTags(metadata *models.VideoMetadata, cover []byte, now time.Time) tagger.Tags {
	artist := metadata.Author
	if artist == "" {
		artist = unknownArtist
	}

	year := strconv.Itoa(now.Year())
	if len(metadata.UploadDate) >= 4 {
		year = metadata.UploadDate[:4]
	}

	comment := []rune(metadata.Description)
	if len(comment) > maxCommentRunes {
		comment = comment[:maxCommentRunes]
	}

	return tagger.Tags{
		Title:   metadata.Title,
		Artist:  artist,
		Album:   tagAlbum,
		Year:    year,
		Genre:   tagGenre,
		Comment: string(comment),
		Cover:   cover,
	}
}

// fetchThumbnail downloads the cover image into memory. Failures are
// logged and yield nil.
func (d *Downloader) fetchThumbnail(ctx context.Context, thumbnailURL string) []byte {
	if thumbnailURL == "" {
		return nil
	}

	data, err := d.downloadImage(ctx, thumbnailURL)
	if err != nil {
		appErr := utils.NewThumbnailFetchError(err)
		utils.LogWarn(ctx, "Failed to download thumbnail", utils.Fields{
			"code":  appErr.Code,
			"url":   thumbnailURL,
			"error": err.Error(),
		})
		return nil
	}
	return data
}

func (d *Downloader) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	limit := d.config.MaxThumbnailSize
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

// archiveArtifact uploads a copy of the artifact in the background. The
// file is opened before returning so a later deletion cannot race the upload.
func (d *Downloader) archiveArtifact(ctx context.Context, artifact *models.Artifact, metadata *models.VideoMetadata) {
	if d.archive == nil {
		return
	}

	file, err := os.Open(artifact.FilePath)
	if err != nil {
		utils.LogWarn(ctx, "Failed to open artifact for archiving", utils.Fields{"error": err.Error()})
		return
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		utils.LogWarn(ctx, "Failed to stat artifact for archiving", utils.Fields{"error": err.Error()})
		return
	}

	key := d.archive.ObjectKey(artifact.CreatedAt, artifact.FileName)
	meta := map[string]string{
		"title":  metadata.Title,
		"author": metadata.Author,
		"format": string(artifact.Format),
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer file.Close()

		uploadCtx, cancel := context.WithTimeout(bg, archiveTimeout)
		defer cancel()

		// Keys are day and title scoped; a repeat download of the same track is skipped.
		exists, err := d.archive.Exists(uploadCtx, key)
		if err != nil {
			utils.LogWarn(bg, "Failed to check archived artifact", utils.Fields{"key": key, "error": err.Error()})
		}
		if exists {
			utils.LogDebug(bg, "Artifact already archived", utils.Fields{"key": key})
			return
		}

		if err := d.archive.UploadWithMetadata(uploadCtx, key, file, info.Size(), artifact.ContentType, meta); err != nil {
			utils.LogError(bg, "Failed to archive artifact", err, utils.Fields{"key": key})
			return
		}
		utils.LogInfo(bg, "Artifact archived", utils.Fields{
			"bucket": d.archive.BucketName(),
			"key":    key,
		})
	}()
}

// scheduleCleanup deletes the artifact once the grace period has passed,
// unless files are kept for local development.
func (d *Downloader) scheduleCleanup(ctx context.Context, path string) {
	if d.config.KeepFiles {
		utils.LogWarn(ctx, "Development mode: file kept", utils.Fields{"path": path})
		return
	}

	bg := context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.removeArtifact(bg, path)
		return
	}

	d.pending[path] = time.AfterFunc(d.config.CleanupGrace, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()
		d.removeArtifact(bg, path)
	})
}

func (d *Downloader) removeArtifact(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			utils.LogError(ctx, "Error deleting file", err, utils.Fields{"path": path})
		}
		return
	}
	utils.LogDebug(ctx, "Temporary file deleted", utils.Fields{"path": path})
}

// PendingCleanups returns the number of artifacts awaiting deletion.
func (d *Downloader) PendingCleanups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close deletes every artifact still inside its grace period and waits
// for background archive uploads.
func (d *Downloader) Close() {
	d.mu.Lock()
	d.closed = true
	paths := make([]string, 0, len(d.pending))
	for path, timer := range d.pending {
		if timer.Stop() {
			paths = append(paths, path)
		}
		delete(d.pending, path)
	}
	d.mu.Unlock()

	ctx := context.Background()
	for _, path := range paths {
		d.removeArtifact(ctx, path)
	}

	d.wg.Wait()
}
