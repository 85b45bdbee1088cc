package resolver

import (
	"context"
	"strings"

	"github.com/denisAlshanov/audiograb/internal/models"
	"github.com/denisAlshanov/audiograb/internal/services/youtube"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

const defaultPlaylistTitle = "Playlist"

// IsPlaylistURL is a syntactic test: a list= query marker or a /playlist
// path segment.
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, "list=") || strings.Contains(url, "/playlist")
}

// PlaylistResolver lists playlist members. Results are never cached.
type PlaylistResolver struct {
	extractor youtube.Extractor
}

func NewPlaylistResolver(extractor youtube.Extractor) *PlaylistResolver {
	return &PlaylistResolver{extractor: extractor}
}

func (r *PlaylistResolver) Resolve(ctx context.Context, url string) (*models.PlaylistInfo, error) {
	if !IsPlaylistURL(url) {
		return nil, utils.NewNotAPlaylistError(url)
	}

	utils.LogInfo(ctx, "Fetching playlist info", utils.Fields{"url": url})

	doc, err := r.extractor.ExtractPlaylist(ctx, url)
	if err != nil {
		utils.LogError(ctx, "Error getting playlist info", err, utils.Fields{"url": url})
		return nil, utils.NewPlaylistUnavailableError(err)
	}

	videos := make([]models.PlaylistVideo, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		videos = append(videos, projectEntry(entry))
	}

	title := doc.Title
	if title == "" {
		title = defaultPlaylistTitle
	}
	uploader := doc.Uploader
	if uploader == "" {
		uploader = doc.Channel
	}

	return &models.PlaylistInfo{
		IsPlaylist: true,
		Title:      title,
		Uploader:   uploader,
		VideoCount: len(videos),
		Videos:     videos,
	}, nil
}

func projectEntry(entry youtube.PlaylistEntry) models.PlaylistVideo {
	thumbnail := entry.Thumbnail
	if thumbnail == "" {
		thumbnail = youtube.DefaultThumbnailURL(entry.ID)
	}
	uploader := entry.Uploader
	if uploader == "" {
		uploader = entry.Channel
	}

	return models.PlaylistVideo{
		ID:        entry.ID,
		URL:       youtube.WatchURL(entry.ID),
		Title:     entry.Title,
		Duration:  int(entry.Duration),
		Thumbnail: thumbnail,
		Uploader:  uploader,
	}
}
