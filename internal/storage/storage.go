package storage

import (
	"context"
	"errors"
)

var (
	// ErrNoStore is returned when an operation runs against a nil store.
	ErrNoStore = errors.New("storage: no store configured")
	// ErrObjectNotFound is returned by Get for unknown keys.
	ErrObjectNotFound = errors.New("storage: object not found")
)

// Object identifies a stored blob.
type Object struct {
	Key string
	URL string
}

// ObjectStore persists image bytes under caller-chosen keys. Writing the
// same key twice overwrites, so a failed Put can be retried safely.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ObjectReader loads stored bytes back, used by the redesign export.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ExtensionFor maps an image MIME type to a file extension.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
