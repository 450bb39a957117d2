// Package storage is the attachment store for profile images. The service
// layer only sees keyed blobs and URL lookups; the S3 implementation and
// the in-memory test double are interchangeable.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewImageKey returns a fresh object key for an uploaded profile image.
func NewImageKey() string {
	return fmt.Sprintf("profile_images/%s", uuid.New())
}
