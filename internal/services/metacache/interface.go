package metacache

import (
	"context"
	"time"

	"github.com/denisAlshanov/audiograb/internal/models"
)

const DefaultTTL = 5 * time.Minute

// Cache maps a source URL to previously resolved metadata.
type Cache interface {
	// Get returns the entry only while it is younger than the TTL
	Get(ctx context.Context, url string) (*models.VideoMetadata, bool)

	// Put stores the entry with a fresh timestamp and drops entries older than twice the TTL
	Put(ctx context.Context, url string, metadata *models.VideoMetadata)
}
