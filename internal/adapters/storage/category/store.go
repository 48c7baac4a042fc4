package category

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/category"
	uploaddomain "marketadmin/internal/domain/upload"
)

// Store persists the category tree.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Category, error)
	All(ctx context.Context) ([]domain.Category, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Category, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Translation(ctx context.Context, id, lang string) (domain.Translation, error)
	Save(ctx context.Context, c domain.Category, tr *domain.Translation) ([]uploaddomain.Upload, error)
	ToggleFeatured(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) (Deleted, error)
}

// ListFilter carries filtering parameters for List and Count.
// ParentID "root" selects top-level categories.
type ListFilter struct {
	storage.ListOptions
	ParentID string
	Featured string
}

// RootParent is the ParentID filter value for top-level categories.
const RootParent = "root"

// Deleted reports what a cascading delete removed.
type Deleted struct {
	CategoryIDs      []string
	OrphanedProducts int
	Uploads          []uploaddomain.Upload
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"name":            "name",
	"order_level":     "order_level",
	"created_at":      "created_at",
	"commission_rate": "commission_rate",
}

var _ Store = (*SQLiteStore)(nil)
