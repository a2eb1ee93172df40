package photostore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists check-in photos and hands back opaque references. The
// scheduling engine never interprets a reference beyond storing it, and
// nothing reads photos back through this package.
type Store interface {
	Save(requestID uuid.UUID, r io.Reader, contentType string) (string, error)
}

// DiskStore is a Store backed by a local directory
type DiskStore struct {
	dir string
}

// NewDiskStore creates the storage directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the photo to disk under a generated name and returns the
// reference
func (s *DiskStore) Save(requestID uuid.UUID, r io.Reader, contentType string) (string, error) {
	ref := fmt.Sprintf("%s-%s%s", requestID, uuid.New().String()[:8], extensionFor(contentType))

	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write photo file: %w", err)
	}

	return ref, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
