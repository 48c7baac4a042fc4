package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"marketadmin/internal/adapters/storage/storagetest"
	uploadstore "marketadmin/internal/adapters/storage/upload"
	"marketadmin/internal/domain/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type failingUploadStore struct{}

func (failingUploadStore) Save(context.Context, upload.Upload) error { return errors.New("disk full") }

func TestExecuteSaveUpload(t *testing.T) {
	db := storagetest.OpenDB(t)
	files := newMemFiles()
	deps := SaveUploadDeps{
		Files:       files,
		UploadStore: uploadstore.NewSQLiteStore(db),
		MaxBytes:    1024,
		GenerateID:  seqIDs("up"),
		Now:         testNow,
	}
	ctx := context.Background()

	u, err := ExecuteSaveUpload(ctx, SaveUploadInput{OriginalName: "Logo.PNG", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader), UserID: "a1"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if u.FileName != "all/up-1.png" || u.Extension != "png" || u.FileSize != int64(len(pngHeader)) {
		t.Errorf("unexpected upload: %+v", u)
	}
	if !bytes.Equal(files.files[u.FileName], pngHeader) {
		t.Error("file content not written")
	}
	if n := storagetest.Count(t, db, "upload", "id = ?", u.ID); n != 1 {
		t.Errorf("upload rows = %d", n)
	}

	tests := []struct {
		name string
		in   SaveUploadInput
		want error
	}{
		{"text renamed to png", SaveUploadInput{OriginalName: "a.png", Size: 5, Body: bytes.NewReader([]byte("hello"))}, upload.ErrUnsupportedImage},
		{"exe", SaveUploadInput{OriginalName: "a.exe", Size: 5, Body: bytes.NewReader(pngHeader)}, upload.ErrUnsupportedImage},
		{"declared too large", SaveUploadInput{OriginalName: "a.png", Size: 4096, Body: bytes.NewReader(pngHeader)}, upload.ErrTooLarge},
		{"actually too large", SaveUploadInput{OriginalName: "a.png", Size: 10, Body: bytes.NewReader(append(pngHeader, make([]byte, 2048)...))}, upload.ErrTooLarge},
		{"empty", SaveUploadInput{OriginalName: "a.png", Size: 0, Body: bytes.NewReader(nil)}, upload.ErrEmptyFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(files.files)
			if _, err := ExecuteSaveUpload(ctx, tt.in, deps); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if len(files.files) != before {
				t.Error("rejected upload left a file behind")
			}
		})
	}
}

func TestExecuteSaveUpload_RowFailureRemovesFile(t *testing.T) {
	files := newMemFiles()
	deps := SaveUploadDeps{Files: files, UploadStore: failingUploadStore{}, MaxBytes: 1024, GenerateID: seqIDs("up"), Now: testNow}
	_, err := ExecuteSaveUpload(context.Background(), SaveUploadInput{OriginalName: "a.png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)}, deps)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(files.files) != 0 || len(files.removed) != 1 {
		t.Errorf("file not cleaned up: files=%v removed=%v", files.files, files.removed)
	}
}

func TestDeleteWithUploads(t *testing.T) {
	files := newMemFiles()
	del := func(_ context.Context, id string) ([]upload.Upload, error) {
		if id != "b1" {
			return nil, errors.New("not found")
		}
		return []upload.Upload{{ID: "u1", FileName: "all/u1.png"}}, nil
	}
	if err := DeleteWithUploads(context.Background(), "b1", del, files); err != nil {
		t.Fatal(err)
	}
	if len(files.removed) != 1 || files.removed[0] != "all/u1.png" {
		t.Errorf("removed = %v", files.removed)
	}
	if err := DeleteWithUploads(context.Background(), "zz", del, files); err == nil {
		t.Error("expected store error to propagate")
	}
}
