// Package storage provides S3-backed object storage for product images.
package storage

import (
	"context"
	"errors"
	"time"

	catalogapp "github.com/moa/backend/internal/application/catalog"
)

// StubObjectStorage is a placeholder ObjectStorage for development
// environments without an S3 backend. URLs point nowhere and every object
// appears to exist.
type StubObjectStorage struct {
	// BaseURL is the base URL used when generating stub URLs.
	// Defaults to "https://storage.invalid" if not set.
	BaseURL string
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.invalid",
	}
}

// Ensure StubObjectStorage implements ObjectStorage
var _ catalogapp.ObjectStorage = (*StubObjectStorage)(nil)

// GenerateUploadURL generates a stub upload URL
func (s *StubObjectStorage) GenerateUploadURL(
	ctx context.Context,
	objectKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("object key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/upload/" + objectKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// GenerateDownloadURL generates a stub download URL
func (s *StubObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	objectKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("object key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + objectKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// StatObject reports every object as an uploaded JPEG so the attach flow
// can be exercised without a storage backend
func (s *StubObjectStorage) StatObject(ctx context.Context, objectKey string) (*catalogapp.ObjectStat, error) {
	if objectKey == "" {
		return nil, errors.New("object key is required")
	}
	return &catalogapp.ObjectStat{
		Size:        1,
		ContentType: "image/jpeg",
	}, nil
}

// DeleteObject is a no-op stub that always succeeds
func (s *StubObjectStorage) DeleteObject(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return errors.New("object key is required")
	}
	return nil
}

// PublicURL returns a stub public URL for the object
func (s *StubObjectStorage) PublicURL(objectKey string) string {
	return s.BaseURL + "/" + objectKey
}
