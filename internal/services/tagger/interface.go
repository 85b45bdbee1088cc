package tagger

import (
	"context"
	"errors"
)

var ErrUnsupportedFormat = errors.New("unsupported audio container for tagging")

// Tags is the descriptive metadata embedded into a finished artifact.
type Tags struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Genre   string
	Comment string
	Cover   []byte // JPEG; omitted when empty
}

// TagWriter embeds tags into an audio file in place.
type TagWriter interface {
	WriteTags(ctx context.Context, path string, tags Tags) error
}
