package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxImageSize caps uploaded proof and analysis images at 5 MiB.
const MaxImageSize = 5 * 1024 * 1024

var (
	ErrNotImage = errors.New("not an image")
	ErrTooLarge = errors.New("image too large")
)

// ValidateImage checks an upload's declared content type and size before
// anything is written to disk.
func ValidateImage(contentType string, size int64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotImage
	}
	if size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}

// Store writes uploaded images under a local directory and maps stored
// paths back to client-facing URLs.
type Store struct {
	dir       string
	urlPrefix string
}

func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}
	return &Store{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Dir returns the directory uploads are written to, for static serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a timestamped name derived from the original
// filename and an optional prefix, and returns the stored path.
func (s *Store) Save(prefix, originalName string, data []byte) (string, error) {
	name := Filename(prefix, originalName, time.Now())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("could not save upload: %w", err)
	}
	return path, nil
}

// Remove deletes a stored file. Used on downstream failure paths; the
// caller treats failure as best-effort.
func (s *Store) Remove(path string) error {
	return os.Remove(path)
}

// URL maps a stored path to its client-facing URL.
func (s *Store) URL(path string) string {
	return s.urlPrefix + "/" + filepath.Base(path)
}

// Filename builds the stored name: [prefix_]YYYYMMDD_HHMMSS_base. The base
// is flattened to its final path element so client-supplied names cannot
// escape the upload directory.
func Filename(prefix, originalName string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload"
	}
	stamp := now.Format("20060102_150405")
	if prefix != "" {
		return prefix + "_" + stamp + "_" + base
	}
	return stamp + "_" + base
}
