package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/domain/flashdeal"
	"marketadmin/internal/domain/slug"
	"marketadmin/internal/domain/upload"
)

// FlashDealStoreForOrchestrator defines the store interface needed by SaveFlashDeal.
type FlashDealStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (flashdeal.FlashDeal, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Save(ctx context.Context, d flashdeal.FlashDeal, lines []flashdeal.Line, tr *flashdeal.Translation) ([]upload.Upload, error)
}

// ProductPricer returns unit prices for the products that exist among ids.
type ProductPricer interface {
	Prices(ctx context.Context, ids []string) (map[string]float64, error)
}

var (
	ErrFlashDealNotFound = errors.New("flash deal not found")
	ErrUnknownProduct    = errors.New("flash deal references a product that does not exist")
)

// SaveFlashDealInput carries the flash deal form. An empty ID creates a new
// deal; an empty BannerUploadID keeps the current banner.
type SaveFlashDealInput struct {
	ID              string
	Title           string
	StartDate       time.Time
	EndDate         time.Time
	Status          bool
	Featured        bool
	BackgroundColor string
	TextColor       string
	BannerUploadID  string
	Lines           []flashdeal.Line
	Lang            string
	DefaultLang     string
}

// SaveFlashDealDeps holds dependencies for SaveFlashDeal.
type SaveFlashDealDeps struct {
	FlashDealStore FlashDealStoreForOrchestrator
	ProductStore   ProductPricer
	Files          FileRemover
	GenerateID     func() string
	Now            func() time.Time
}

// ExecuteSaveFlashDeal creates or updates a deal and replaces its product lines.
// PRE: none
// POST: Every line references an existing product exactly once; featuring this
// deal un-features every other deal in the same transaction
func ExecuteSaveFlashDeal(ctx context.Context, input SaveFlashDealInput, deps SaveFlashDealDeps) (flashdeal.FlashDeal, error) {
	title := strings.TrimSpace(input.Title)
	lang := input.Lang
	if lang == "" {
		lang = input.DefaultLang
	}
	defaultLang := lang == input.DefaultLang

	var d flashdeal.FlashDeal
	if input.ID != "" {
		existing, err := deps.FlashDealStore.GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return flashdeal.FlashDeal{}, ErrFlashDealNotFound
			}
			return flashdeal.FlashDeal{}, err
		}
		d = existing
	} else {
		d = flashdeal.FlashDeal{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	}
	oldTitle := d.Title
	if defaultLang || input.ID == "" {
		d.Title = title
	}
	d.StartDate = input.StartDate
	d.EndDate = input.EndDate
	d.Status = input.Status
	d.Featured = input.Featured
	d.BackgroundColor = strings.ToLower(strings.TrimSpace(input.BackgroundColor))
	d.TextColor = input.TextColor
	if input.BannerUploadID != "" {
		d.BannerUploadID = input.BannerUploadID
	}
	if title == "" {
		return flashdeal.FlashDeal{}, flashdeal.ErrEmptyTitle
	}
	if err := d.Validate(); err != nil {
		return flashdeal.FlashDeal{}, err
	}

	ids := make([]string, 0, len(input.Lines))
	for _, l := range input.Lines {
		ids = append(ids, l.ProductID)
	}
	prices, err := deps.ProductStore.Prices(ctx, ids)
	if err != nil {
		return flashdeal.FlashDeal{}, err
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return flashdeal.FlashDeal{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
	}
	if err := flashdeal.ValidateLines(input.Lines, prices); err != nil {
		return flashdeal.FlashDeal{}, err
	}
	lines := make([]flashdeal.Line, len(input.Lines))
	for i, l := range input.Lines {
		l.ID = deps.GenerateID()
		l.FlashDealID = d.ID
		lines[i] = l
	}

	if d.Slug == "" || slug.Make(d.Title) != slug.Make(oldTitle) {
		d.Slug, err = slug.Unique(ctx, d.Title, func(ctx context.Context, s string) (bool, error) {
			return deps.FlashDealStore.SlugExists(ctx, s, d.ID)
		})
		if err != nil {
			return flashdeal.FlashDeal{}, err
		}
	}

	tr := &flashdeal.Translation{FlashDealID: d.ID, Lang: lang, Title: title}
	replaced, err := deps.FlashDealStore.Save(ctx, d, lines, tr)
	if storage.IsForeignKeyViolation(err) {
		// a product was deleted after the price lookup
		return flashdeal.FlashDeal{}, ErrUnknownProduct
	}
	if err != nil {
		return flashdeal.FlashDeal{}, err
	}
	RemoveUploadFiles(deps.Files, replaced)
	return d, nil
}
