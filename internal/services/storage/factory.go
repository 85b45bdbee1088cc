package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/denisAlshanov/audiograb/internal/config"
)

const dayLayout = "2006-01-02"

// NewArchive creates the S3 archive, or returns nil when no bucket is configured.
func NewArchive(cfg *config.S3Config) (Archive, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	archive, err := NewS3Storage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage: %w", err)
	}

	return archive, nil
}

// ArtifactKey places an artifact under prefix, partitioned by day.
func ArtifactKey(prefix, day, fileName string) string {
	return path.Join(strings.Trim(prefix, "/"), day, fileName)
}
