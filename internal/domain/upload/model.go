package upload

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyFile        = errors.New("uploaded file is empty")
	ErrTooLarge         = errors.New("uploaded file is too large")
	ErrUnsupportedImage = errors.New("image must be png, jpg, gif, webp or svg")
)

// imageTypes maps allowed extensions to the content types accepted for them.
var imageTypes = map[string][]string{
	"png":  {"image/png"},
	"jpg":  {"image/jpeg"},
	"jpeg": {"image/jpeg"},
	"gif":  {"image/gif"},
	"webp": {"image/webp"},
	"svg":  {"image/svg+xml", "text/xml; charset=utf-8", "text/plain; charset=utf-8"},
}

// Upload is a stored file referenced by banners, categories, flash deals, and packages.
type Upload struct {
	ID               string
	FileOriginalName string
	FileName         string // path relative to the upload root, e.g. all/<id>.png
	FileSize         int64
	Extension        string
	Type             string // "image"
	UserID           string
	CreatedAt        time.Time
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ValidateImage checks an uploaded image against the allowed types and size limit.
// contentType is the sniffed type of the first bytes of the file.
// PRE: maxBytes > 0
// POST: Returns nil if the image is acceptable
func ValidateImage(name string, size int64, contentType string, maxBytes int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > maxBytes {
		return ErrTooLarge
	}
	allowed, ok := imageTypes[Extension(name)]
	if !ok {
		return ErrUnsupportedImage
	}
	for _, ct := range allowed {
		if ct == contentType {
			return nil
		}
	}
	return ErrUnsupportedImage
}
