package flashdeal

import (
	"context"
	"time"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/flashdeal"
	uploaddomain "marketadmin/internal/domain/upload"
)

// Store persists flash deals and their product lines.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.FlashDeal, error)
	List(ctx context.Context, filter ListFilter) ([]domain.FlashDeal, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Lines(ctx context.Context, id string) ([]LineRow, error)
	Save(ctx context.Context, d domain.FlashDeal, lines []domain.Line, tr *domain.Translation) ([]uploaddomain.Upload, error)
	ToggleStatus(ctx context.Context, id string) (bool, error)
	ToggleFeatured(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) ([]uploaddomain.Upload, error)
	Featured(ctx context.Context) (domain.FlashDeal, error)
	CountRunning(ctx context.Context, now time.Time) (int, error)
}

// LineRow is a deal line joined with its product.
type LineRow struct {
	domain.Line
	ProductName string
	UnitPrice   float64
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
	Status   string
	Featured string
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"title":      "title",
	"start_date": "start_date",
	"end_date":   "end_date",
}

var _ Store = (*SQLiteStore)(nil)
