package catalog

import (
	"context"
	"time"
)

// ImageStorage is the outbound port for product image storage. The S3
// adapter implements it in production; a stub serves development.
type ImageStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	PublicURL(key string) string
	DeleteObject(ctx context.Context, key string) error
	ObjectExists(ctx context.Context, key string) (bool, error)
}
