// Package storage defines the object store used for uploaded club assets.
package storage

import (
	"context"
	"io"
)

// ObjectStore persists uploaded blobs and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
