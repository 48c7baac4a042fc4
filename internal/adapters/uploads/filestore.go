// Package uploads stores uploaded image files on the local disk under
// <root>/all/<id>.<ext>.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Dir is the subdirectory that holds every upload.
const Dir = "all"

// FileStore writes and removes upload files below a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates the upload directory when missing.
// PRE: root is a writable path
// POST: <root>/all exists
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, Dir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory served under /uploads/.
func (s *FileStore) Root() string {
	return s.root
}

// FileName returns the stored relative name for an upload id and extension.
func FileName(id, ext string) string {
	return Dir + "/" + id + "." + ext
}

// Write copies r into fileName (relative to the root) and returns the byte count.
// A partially written file is removed on error.
// PRE: fileName came from FileName
func (s *FileStore) Write(fileName string, r io.Reader) (int64, error) {
	path, err := s.path(fileName)
	if err != nil {
		return 0, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}

// Remove deletes fileName. A file that is already gone is not an error.
func (s *FileStore) Remove(fileName string) error {
	path, err := s.path(fileName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) path(fileName string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(fileName))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid upload file name %q", fileName)
	}
	return filepath.Join(s.root, clean), nil
}

// DetectContentType sniffs the first bytes of a file. SVG cannot be sniffed
// reliably, so an .svg extension whose content looks like markup is reported
// as image/svg+xml.
func DetectContentType(head []byte, ext string) string {
	ct := http.DetectContentType(head)
	if ext == "svg" && strings.Contains(string(head), "<svg") {
		return "image/svg+xml"
	}
	return ct
}
