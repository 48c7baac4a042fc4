package sellerpackage

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/sellerpackage"
	uploaddomain "marketadmin/internal/domain/upload"
)

// Store persists seller packages.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Package, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Package, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Translation(ctx context.Context, id, lang string) (domain.Translation, error)
	Save(ctx context.Context, p domain.Package, tr *domain.Translation) ([]uploaddomain.Upload, error)
	Delete(ctx context.Context, id string) ([]uploaddomain.Upload, error)
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"name":                 "name",
	"amount":               "amount",
	"duration_days":        "duration_days",
	"product_upload_limit": "product_upload_limit",
}

var _ Store = (*SQLiteStore)(nil)
