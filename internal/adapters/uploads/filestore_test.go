package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAndRemove(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	if err != nil {
		t.Fatal(err)
	}
	name := FileName("abc", "png")
	if name != "all/abc.png" {
		t.Fatalf("FileName = %q", name)
	}
	n, err := s.Write(name, strings.NewReader("pngdata"))
	if err != nil || n != 7 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if _, err := os.Stat(filepath.Join(root, "all", "abc.png")); err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if _, err := s.Write(name, strings.NewReader("again")); err == nil {
		t.Error("overwriting an existing upload should fail")
	}

	if err := s.Remove(name); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(name); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../secret", "/etc/passwd", "all/../../x", ""} {
		if err := s.Remove(name); err == nil {
			t.Errorf("Remove(%q) should fail", name)
		}
	}
}

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	tests := []struct {
		head []byte
		ext  string
		want string
	}{
		{png, "png", "image/png"},
		{[]byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`), "svg", "image/svg+xml"},
		{[]byte("plain words"), "svg", "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		if got := DetectContentType(tt.head, tt.ext); got != tt.want {
			t.Errorf("DetectContentType(%q, %s) = %q, want %q", tt.head, tt.ext, got, tt.want)
		}
	}
}
