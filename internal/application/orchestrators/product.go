package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"marketadmin/internal/domain/category"
	"marketadmin/internal/domain/product"
	"marketadmin/internal/domain/slug"
)

// ProductStoreForOrchestrator defines the store interface needed by SaveProduct.
type ProductStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Stocks(ctx context.Context, id string) ([]product.Stock, error)
	Save(ctx context.Context, p product.Product, stock product.Stock, tr *product.Translation) error
}

// CategoryGetter looks up a category by id.
type CategoryGetter interface {
	GetByID(ctx context.Context, id string) (category.Category, error)
}

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryRequired = errors.New("selected category does not exist")
)

// SaveProductInput carries the product form. An empty ID creates a new product.
type SaveProductInput struct {
	ID           string
	Name         string
	CategoryID   string
	UnitPrice    float64
	Discount     float64
	DiscountType string
	Qty          int
	SKU          string
	Description  string
	Published    bool
	Featured     bool
	TodaysDeal   bool
	Lang         string // language of Name and Description
	DefaultLang  string
}

// SaveProductDeps holds dependencies for SaveProduct.
type SaveProductDeps struct {
	ProductStore  ProductStoreForOrchestrator
	CategoryStore CategoryGetter
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSaveProduct creates or updates a product, its default stock row and its translation.
// Products created here are admin listings and start approved. Editing keeps
// the owner, approval and review aggregates.
// PRE: none
// POST: current_stock equals the sum of the product's stock rows; slug is unique
func ExecuteSaveProduct(ctx context.Context, input SaveProductInput, deps SaveProductDeps) (product.Product, error) {
	now := deps.Now()
	name := strings.TrimSpace(input.Name)
	lang := input.Lang
	if lang == "" {
		lang = input.DefaultLang
	}
	defaultLang := lang == input.DefaultLang

	var p product.Product
	var stock product.Stock
	var variants []product.Stock
	if input.ID != "" {
		existing, err := deps.ProductStore.GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return product.Product{}, ErrProductNotFound
			}
			return product.Product{}, err
		}
		p = existing
		stocks, err := deps.ProductStore.Stocks(ctx, p.ID)
		if err != nil {
			return product.Product{}, err
		}
		for _, s := range stocks {
			if s.Variant == "" {
				stock = s
				continue
			}
			variants = append(variants, s)
		}
	} else {
		p = product.Product{
			ID:        deps.GenerateID(),
			AddedBy:   product.AddedByAdmin,
			Approved:  true,
			CreatedAt: now,
		}
	}

	oldName := p.Name
	if defaultLang || input.ID == "" {
		p.Name = name
		p.Description = input.Description
	}
	p.CategoryID = input.CategoryID
	p.UnitPrice = input.UnitPrice
	p.Discount = input.Discount
	p.DiscountType = input.DiscountType
	if p.DiscountType == "" {
		p.DiscountType = product.DiscountAmount
	}
	p.Published = input.Published
	p.Featured = input.Featured
	p.TodaysDeal = input.TodaysDeal
	p.UpdatedAt = now
	if input.Qty < 0 {
		return product.Product{}, product.ErrNegativeStock
	}
	p.CurrentStock = product.TotalStock(append(variants, product.Stock{Qty: input.Qty}))
	tr := &product.Translation{ProductID: p.ID, Lang: lang, Name: name, Description: input.Description}
	if err := tr.Validate(); err != nil {
		return product.Product{}, err
	}
	if err := p.Validate(); err != nil {
		return product.Product{}, err
	}

	if p.CategoryID != "" {
		if _, err := deps.CategoryStore.GetByID(ctx, p.CategoryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return product.Product{}, ErrCategoryRequired
			}
			return product.Product{}, err
		}
	}

	if p.Slug == "" || slug.Make(p.Name) != slug.Make(oldName) {
		var err error
		p.Slug, err = slug.Unique(ctx, p.Name, func(ctx context.Context, s string) (bool, error) {
			return deps.ProductStore.SlugExists(ctx, s, p.ID)
		})
		if err != nil {
			return product.Product{}, err
		}
	}

	stock.ProductID = p.ID
	stock.SKU = strings.TrimSpace(input.SKU)
	stock.Qty = input.Qty
	if err := deps.ProductStore.Save(ctx, p, stock, tr); err != nil {
		return product.Product{}, err
	}
	// Save recomputes the total from every stock row; the default row is only part of it.
	return deps.ProductStore.GetByID(ctx, p.ID)
}
