package youtube

import (
	"context"
)

// Extractor is the narrow capability surface of the external extraction
// and transcoding tool.
type Extractor interface {
	// ExtractMetadata retrieves the metadata document of a single video
	ExtractMetadata(ctx context.Context, url string) (*MediaDocument, error)

	// ExtractPlaylist enumerates playlist members without visiting each video
	ExtractPlaylist(ctx context.Context, url string) (*PlaylistDocument, error)

	// ExtractAudio fetches the source media and transcodes it into opts.OutputPath
	ExtractAudio(ctx context.Context, url string, opts AudioOptions) error
}

// MediaDocument is the subset of the extractor's JSON document we consume.
type MediaDocument struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Channel     string  `json:"channel"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
	ViewCount   int64   `json:"view_count"`
	UploadDate  string  `json:"upload_date"`
}

type PlaylistDocument struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Uploader string          `json:"uploader"`
	Channel  string          `json:"channel"`
	Entries  []PlaylistEntry `json:"entries"`
}

type PlaylistEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Uploader  string  `json:"uploader"`
	Channel   string  `json:"channel"`
}

// AudioOptions are the negotiated parameters of one extraction.
type AudioOptions struct {
	Format     string
	Quality    int // 0 best .. 9 worst
	OutputPath string
}
