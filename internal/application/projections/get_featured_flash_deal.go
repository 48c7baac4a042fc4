package projections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	flashDealStore "marketadmin/internal/adapters/storage/flashdeal"
	"marketadmin/internal/domain/flashdeal"
	"marketadmin/internal/domain/product"
)

// FeaturedFlashDealStore defines the store interface needed by the featured deal projection.
type FeaturedFlashDealStore interface {
	Featured(ctx context.Context) (flashdeal.FlashDeal, error)
	Lines(ctx context.Context, id string) ([]flashDealStore.LineRow, error)
}

// ErrNoFeaturedDeal is returned when no featured deal is live.
var ErrNoFeaturedDeal = errors.New("no featured flash deal is running")

// FeaturedDealProduct is one product of the public featured deal.
type FeaturedDealProduct struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	UnitPrice    float64 `json:"unit_price"`
	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discount_type"`
	DealPrice    float64 `json:"deal_price"`
}

// FeaturedDeal is the storefront view of the featured flash deal.
type FeaturedDeal struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	StartDate       time.Time             `json:"start_date"`
	EndDate         time.Time             `json:"end_date"`
	BackgroundColor string                `json:"background_color"`
	TextColor       string                `json:"text_color"`
	Products        []FeaturedDealProduct `json:"products"`
}

// GetFeaturedFlashDealDeps holds dependencies for the featured deal projection.
type GetFeaturedFlashDealDeps struct {
	FlashDealStore FeaturedFlashDealStore
	Now            func() time.Time
}

// QueryGetFeaturedFlashDeal returns the featured deal when it is enabled and running.
// POST: Returns ErrNoFeaturedDeal when none is featured or the featured one is not live
func QueryGetFeaturedFlashDeal(ctx context.Context, deps GetFeaturedFlashDealDeps) (FeaturedDeal, error) {
	d, err := deps.FlashDealStore.Featured(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return FeaturedDeal{}, ErrNoFeaturedDeal
	}
	if err != nil {
		return FeaturedDeal{}, err
	}
	if !d.IsLive(deps.Now()) {
		return FeaturedDeal{}, ErrNoFeaturedDeal
	}
	lines, err := deps.FlashDealStore.Lines(ctx, d.ID)
	if err != nil {
		return FeaturedDeal{}, err
	}
	out := FeaturedDeal{
		ID:              d.ID,
		Title:           d.Title,
		Slug:            d.Slug,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		BackgroundColor: d.BackgroundColor,
		TextColor:       d.TextColor,
		Products:        make([]FeaturedDealProduct, 0, len(lines)),
	}
	for _, l := range lines {
		out.Products = append(out.Products, FeaturedDealProduct{
			ProductID:    l.ProductID,
			Name:         l.ProductName,
			UnitPrice:    l.UnitPrice,
			Discount:     l.Discount,
			DiscountType: l.DiscountType,
			DealPrice:    product.ApplyDiscount(l.UnitPrice, l.Discount, l.DiscountType),
		})
	}
	return out, nil
}
