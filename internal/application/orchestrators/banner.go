package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"marketadmin/internal/domain/banner"
	"marketadmin/internal/domain/upload"
)

// BannerStoreForOrchestrator defines the store interface needed by SaveBanner.
type BannerStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (banner.Banner, error)
	Save(ctx context.Context, b banner.Banner) ([]upload.Upload, error)
}

// ErrBannerNotFound is returned when editing a banner that does not exist.
var ErrBannerNotFound = errors.New("banner not found")

// SaveBannerInput carries the banner form. An empty ID creates a new banner;
// an empty UploadID on edit keeps the current image.
type SaveBannerInput struct {
	ID        string
	Title     string
	URL       string
	Position  int
	UploadID  string
	Published bool
}

// SaveBannerDeps holds dependencies for SaveBanner.
type SaveBannerDeps struct {
	BannerStore BannerStoreForOrchestrator
	Files       FileRemover
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteSaveBanner creates or updates a banner.
// PRE: none
// POST: Banner persisted with an image; a replaced image is deleted
func ExecuteSaveBanner(ctx context.Context, input SaveBannerInput, deps SaveBannerDeps) (banner.Banner, error) {
	b := banner.Banner{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	if input.ID != "" {
		existing, err := deps.BannerStore.GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return banner.Banner{}, ErrBannerNotFound
			}
			return banner.Banner{}, err
		}
		b = existing
	}
	b.Title = strings.TrimSpace(input.Title)
	b.URL = strings.TrimSpace(input.URL)
	b.Position = input.Position
	b.Published = input.Published
	if input.UploadID != "" {
		b.UploadID = input.UploadID
	}
	if err := b.Validate(); err != nil {
		return banner.Banner{}, err
	}
	replaced, err := deps.BannerStore.Save(ctx, b)
	if err != nil {
		return banner.Banner{}, err
	}
	RemoveUploadFiles(deps.Files, replaced)
	return b, nil
}
