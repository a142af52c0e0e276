// Package storage provides object storage for product images.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
)

var _ appcatalog.ImageStorage = (*StubImageStorage)(nil)

// StubImageStorage is a placeholder image store for development and tests.
// It fabricates URLs and never touches a real backend.
type StubImageStorage struct {
	// BaseURL is the base URL for generated links.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string
}

// NewStubImageStorage creates a new StubImageStorage
func NewStubImageStorage() *StubImageStorage {
	return &StubImageStorage{
		BaseURL: "https://storage.example.com",
	}
}

// GenerateUploadURL fabricates a presigned-looking upload URL
func (s *StubImageStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/upload/" + key + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// PublicURL returns a stable fabricated URL for a key
func (s *StubImageStorage) PublicURL(key string) string {
	return s.BaseURL + "/" + strings.TrimPrefix(key, "/")
}

// DeleteObject is a no-op that always succeeds
func (s *StubImageStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// ObjectExists always reports true so upload confirmation flows work in
// development
func (s *StubImageStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}
	return true, nil
}
