// Package resolver turns source URLs into video metadata and playlist
// listings by way of the extractor.
package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/services/metacache"
	"github.com/denisAlshanov/audiograb/internal/services/youtube"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

// DurationPolicy limits the length of videos accepted for download.
type DurationPolicy struct {
	Enforce    bool
	MaxSeconds int
}

// Check returns a TooLong error when the policy is active and the
// duration exceeds the maximum.
func (p DurationPolicy) Check(durationSeconds int) error {
	if !p.Enforce || p.MaxSeconds <= 0 {
		return nil
	}
	if durationSeconds > p.MaxSeconds {
		return utils.NewTooLongError(durationSeconds, p.MaxSeconds)
	}
	return nil
}

type MetadataResolver struct {
	extractor youtube.Extractor
	cache     metacache.Cache
	policy    DurationPolicy
	inflight  singleflight.Group
}

func NewMetadataResolver(extractor youtube.Extractor, cache metacache.Cache, policy DurationPolicy) *MetadataResolver {
	return &MetadataResolver{
		extractor: extractor,
		cache:     cache,
		policy:    policy,
	}
}

// Policy returns the duration policy applied on cache misses.
func (r *MetadataResolver) Policy() DurationPolicy {
	return r.policy
}

// Resolve returns the metadata for url. A cache hit is returned as-is;
// concurrent misses for the same URL share one extractor call.
func (r *MetadataResolver) Resolve(ctx context.Context, url string) (*models.VideoMetadata, error) {
	if metadata, ok := r.cache.Get(ctx, url); ok {
		return metadata, nil
	}

	v, err, shared := r.inflight.Do(url, func() (interface{}, error) {
		return r.fetch(context.WithoutCancel(ctx), url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		utils.LogDebug(ctx, "Shared in-flight video info lookup", utils.Fields{"url": url})
	}
	return v.(*models.VideoMetadata), nil
}

func (r *MetadataResolver) fetch(ctx context.Context, url string) (*models.VideoMetadata, error) {
	start := time.Now()

	doc, err := r.extractor.ExtractMetadata(ctx, url)
	if err != nil {
		utils.LogError(ctx, "Error getting video info", err, utils.Fields{"url": url})
		return nil, utils.NewUnavailableMediaError(err)
	}

	metadata := projectMetadata(url, doc)

	if err := r.policy.Check(metadata.Duration); err != nil {
		utils.LogWarn(ctx, "Video rejected by duration policy", utils.Fields{
			"url":      url,
			"duration": metadata.Duration,
			"max":      r.policy.MaxSeconds,
		})
		return nil, err
	}

	r.cache.Put(ctx, url, metadata)

	utils.LogInfo(ctx, "Resolved video info", utils.Fields{
		"url":      url,
		"title":    metadata.Title,
		"duration": metadata.Duration,
		"elapsed":  utils.Elapsed(start),
	})

	return metadata, nil
}

func projectMetadata(url string, doc *youtube.MediaDocument) *models.VideoMetadata {
	author := doc.Uploader
	if author == "" {
		author = doc.Channel
	}

	// Only YouTube URLs have a cover to fall back to.
	thumbnail := doc.Thumbnail
	if thumbnail == "" {
		thumbnail = youtube.CoverURL(url)
	}

	return &models.VideoMetadata{
		Title:       doc.Title,
		Author:      author,
		Duration:    int(doc.Duration),
		Thumbnail:   thumbnail,
		Description: doc.Description,
		ViewCount:   doc.ViewCount,
		UploadDate:  doc.UploadDate,
	}
}
