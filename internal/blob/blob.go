package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrNotExist is returned when no object has the requested name
	ErrNotExist = errors.New("blob: object does not exist")

	// ErrExists is returned by Create when the name is already taken
	ErrExists = errors.New("blob: object already exists")
)

// Store is a flat namespace of immutable objects
type Store interface {
	// Create writes a new object. It never overwrites an existing one.
	Create(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// ContentTypeFor returns the image content type served for a stored name
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
