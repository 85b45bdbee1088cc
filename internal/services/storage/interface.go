package storage

import (
	"context"
	"io"
	"time"
)

// Archive keeps a copy of delivered artifacts outside the scratch directory.
type Archive interface {
	BucketName() string
	ObjectKey(createdAt time.Time, fileName string) string
	UploadWithMetadata(ctx context.Context, key string, data io.Reader, size int64, contentType string, metadata map[string]string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
