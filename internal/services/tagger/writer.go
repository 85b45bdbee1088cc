// Package tagger writes ID3v2 tags into mp3 files and iTunes-style atoms
// into m4a/mp4 files.
package tagger

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/denisAlshanov/audiograb/internal/utils"
)

// Writer picks the tag format from the file extension.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteTags(ctx context.Context, path string, tags Tags) error {
	start := time.Now()

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		err = writeID3(path, tags)
	case ".m4a", ".mp4":
		err = writeMP4(path, tags)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return err
	}

	utils.LogDebug(ctx, "Audio tags written", utils.Fields{
		"path":      path,
		"has_cover": len(tags.Cover) > 0,
		"elapsed":   utils.Elapsed(start),
	})
	return nil
}
