package downloader

import (
	"strings"

	"github.com/denisAlshanov/audiograb/internal/models"
)

const (
	contentTypeMPEG = "audio/mpeg"
	contentTypeMP4  = "audio/mp4"
)

// Extractor audio quality scale: 0 best, 9 worst.
var qualityScale = map[models.Quality]int{
	models.QualityHigh:   0,
	models.QualityMedium: 5,
	models.QualityLow:    9,
}

// NegotiateQuality maps a requested quality to the extractor scale.
// Unknown values fall back to medium.
func NegotiateQuality(quality string) int {
	if q, ok := qualityScale[models.Quality(strings.ToLower(quality))]; ok {
		return q
	}
	return qualityScale[models.QualityMedium]
}

// NegotiateFormat returns the output container and its content type.
// Unknown values fall back to mp3.
func NegotiateFormat(format string) (models.AudioFormat, string) {
	switch f := models.AudioFormat(strings.ToLower(format)); f {
	case models.FormatMP3:
		return f, contentTypeMPEG
	case models.FormatM4A, models.FormatMP4:
		return f, contentTypeMP4
	default:
		return models.FormatMP3, contentTypeMPEG
	}
}
