package product

import (
	"context"
	"time"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/product"
)

// Store persists products with their stock rows and translations.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]Row, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Stocks(ctx context.Context, id string) ([]domain.Stock, error)
	Translation(ctx context.Context, id, lang string) (domain.Translation, error)
	Save(ctx context.Context, p domain.Product, stock domain.Stock, tr *domain.Translation) error
	Toggle(ctx context.Context, id, field string, now time.Time) (bool, error)
	SetApproval(ctx context.Context, id string, approved bool, now time.Time) error
	Delete(ctx context.Context, ids ...string) (int, error)
	Prices(ctx context.Context, ids []string) (map[string]float64, error)
}

// Row is a list row: the product plus its category name.
type Row struct {
	domain.Product
	CategoryName string
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	storage.ListOptions
	CategoryID string // "none" selects uncategorised products
	AddedBy    string
	SellerID   string
	Published  string
	Approved   string
	Featured   string
}

// NoCategory is the CategoryID filter value for uncategorised products.
const NoCategory = "none"

// Toggleable boolean columns.
const (
	FieldPublished  = "published"
	FieldFeatured   = "featured"
	FieldTodaysDeal = "todays_deal"
)

var toggleColumns = map[string]string{
	FieldPublished:  "published",
	FieldFeatured:   "featured",
	FieldTodaysDeal: "todays_deal",
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"name":           "p.name",
	"unit_price":     "p.unit_price",
	"created_at":     "p.created_at",
	"current_stock":  "p.current_stock",
	"rating":         "p.rating",
	"num_of_reviews": "p.num_of_reviews",
}

var _ Store = (*SQLiteStore)(nil)
