package orchestrators

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"marketadmin/internal/adapters/uploads"
	"marketadmin/internal/domain/upload"
)

// FileWriter stores and removes upload files.
type FileWriter interface {
	Write(fileName string, r io.Reader) (int64, error)
	Remove(fileName string) error
}

// FileRemover removes upload files.
type FileRemover interface {
	Remove(fileName string) error
}

// UploadStoreForOrchestrator defines the store interface needed by SaveUpload.
type UploadStoreForOrchestrator interface {
	Save(ctx context.Context, u upload.Upload) error
}

// SaveUploadInput describes one multipart file.
type SaveUploadInput struct {
	OriginalName string
	Size         int64
	Body         io.Reader
	UserID       string
}

// SaveUploadDeps holds dependencies for SaveUpload.
type SaveUploadDeps struct {
	Files       FileWriter
	UploadStore UploadStoreForOrchestrator
	MaxBytes    int64
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteSaveUpload validates an image, writes it to disk and records its row.
// PRE: Body yields Size bytes
// POST: File and row both exist, or neither does
func ExecuteSaveUpload(ctx context.Context, input SaveUploadInput, deps SaveUploadDeps) (upload.Upload, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return upload.Upload{}, err
	}
	head = head[:n]

	ext := upload.Extension(input.OriginalName)
	contentType := uploads.DetectContentType(head, ext)
	if err := upload.ValidateImage(input.OriginalName, input.Size, contentType, deps.MaxBytes); err != nil {
		return upload.Upload{}, err
	}

	u := upload.Upload{
		ID:               deps.GenerateID(),
		FileOriginalName: input.OriginalName,
		Extension:        ext,
		Type:             "image",
		UserID:           input.UserID,
		CreatedAt:        deps.Now(),
	}
	u.FileName = uploads.FileName(u.ID, ext)

	// The size limit is enforced on the bytes actually read, not the declared size.
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), input.Body), deps.MaxBytes+1)
	written, err := deps.Files.Write(u.FileName, body)
	if err != nil {
		return upload.Upload{}, err
	}
	if written > deps.MaxBytes {
		_ = deps.Files.Remove(u.FileName)
		return upload.Upload{}, upload.ErrTooLarge
	}
	u.FileSize = written

	if err := deps.UploadStore.Save(ctx, u); err != nil {
		_ = deps.Files.Remove(u.FileName)
		return upload.Upload{}, err
	}
	return u, nil
}

// RemoveUploadFiles deletes the files of upload rows that were removed in a
// committed transaction. Failures are logged; the rows are already gone.
func RemoveUploadFiles(files FileRemover, removed []upload.Upload) {
	for _, u := range removed {
		if err := files.Remove(u.FileName); err != nil {
			slog.Warn("upload_file_remove_failed", "upload_id", u.ID, "file", u.FileName, "error", err)
		}
	}
}

// DeleteWithUploads runs a store delete that returns the upload rows it removed
// and then deletes their files.
func DeleteWithUploads(ctx context.Context, id string, del func(context.Context, string) ([]upload.Upload, error), files FileRemover) error {
	removed, err := del(ctx, id)
	if err != nil {
		return err
	}
	RemoveUploadFiles(files, removed)
	return nil
}
