package tagger

import (
	"fmt"

	"github.com/zhaarey/go-mp4tag"
)

func writeMP4(path string, tags Tags) error {
	t := &mp4tag.MP4Tags{
		Title:       tags.Title,
		Artist:      tags.Artist,
		Album:       tags.Album,
		AlbumArtist: tags.Artist,
		Date:        tags.Year,
		CustomGenre: tags.Genre,
		Comment:     tags.Comment,
	}
	if len(tags.Cover) > 0 {
		t.Pictures = []*mp4tag.MP4Picture{{
			Format: mp4tag.ImageTypeJPEG,
			Data:   tags.Cover,
		}}
	}

	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open mp4 for tagging: %w", err)
	}
	defer mp4.Close()

	if err := mp4.Write(t, []string{}); err != nil {
		return fmt.Errorf("failed to write mp4 tags: %w", err)
	}
	return nil
}
