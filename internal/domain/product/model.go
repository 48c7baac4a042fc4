package product

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 20000
)

// Who listed the product.
const (
	AddedByAdmin  = "admin"
	AddedBySeller = "seller"
)

// Discount types
const (
	DiscountAmount  = "amount"
	DiscountPercent = "percent"
)

// Domain errors
var (
	ErrEmptyName           = errors.New("product name cannot be empty")
	ErrNameTooLong         = errors.New("product name cannot exceed 200 characters")
	ErrDescriptionTooLong  = errors.New("description is too long")
	ErrNegativePrice       = errors.New("unit price cannot be negative")
	ErrNotFinite           = errors.New("prices and discounts must be finite numbers")
	ErrNegativeDiscount    = errors.New("discount cannot be negative")
	ErrDiscountOverPrice   = errors.New("discount cannot exceed the unit price")
	ErrPercentOver100      = errors.New("percent discount cannot exceed 100")
	ErrInvalidDiscountType = errors.New("discount type must be amount or percent")
	ErrInvalidAddedBy      = errors.New("added by must be admin or seller")
	ErrSellerRequired      = errors.New("seller products must reference a seller")
	ErrNegativeStock       = errors.New("stock quantity cannot be negative")
)

// Product is a marketplace listing.
type Product struct {
	ID           string
	Name         string
	Slug         string
	CategoryID   string // empty when uncategorised
	AddedBy      string
	SellerID     string
	UnitPrice    float64
	Discount     float64
	DiscountType string
	CurrentStock int
	Description  string // markdown
	Published    bool
	Featured     bool
	TodaysDeal   bool
	Approved     bool
	Rating       float64
	NumReviews   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stock is a variant row; CurrentStock is the sum of all stock quantities.
type Stock struct {
	ID        string
	ProductID string
	Variant   string // empty for the default row
	SKU       string
	Price     float64
	Qty       int
}

// Translation is a localised product name and description.
type Translation struct {
	ProductID   string
	Lang        string
	Name        string
	Description string
}

// Validate checks if the Product has valid data.
// PRE: Product struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !finite(p.UnitPrice) {
		return ErrNotFinite
	}
	if p.UnitPrice < 0 {
		return ErrNegativePrice
	}
	if err := ValidateDiscount(p.UnitPrice, p.Discount, p.DiscountType); err != nil {
		return err
	}
	if p.AddedBy != AddedByAdmin && p.AddedBy != AddedBySeller {
		return ErrInvalidAddedBy
	}
	if p.AddedBy == AddedBySeller && p.SellerID == "" {
		return ErrSellerRequired
	}
	if p.CurrentStock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// ValidateDiscount checks a discount against a price.
func ValidateDiscount(price, discount float64, discountType string) error {
	if !finite(price) || !finite(discount) {
		return ErrNotFinite
	}
	if discount < 0 {
		return ErrNegativeDiscount
	}
	switch discountType {
	case DiscountPercent:
		if discount > 100 {
			return ErrPercentOver100
		}
	case DiscountAmount:
		if discount > price {
			return ErrDiscountOverPrice
		}
	default:
		return ErrInvalidDiscountType
	}
	return nil
}

// Validate checks a localised name and description.
func (t *Translation) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ApplyDiscount returns price after discount, rounded to cents and never below zero.
func ApplyDiscount(price, discount float64, discountType string) float64 {
	out := price
	switch discountType {
	case DiscountPercent:
		out = price - price*discount/100
	case DiscountAmount:
		out = price - discount
	}
	if out < 0 {
		out = 0
	}
	return math.Round(out*100) / 100
}

// SalePrice returns the unit price after the product's own discount.
func (p *Product) SalePrice() float64 {
	return ApplyDiscount(p.UnitPrice, p.Discount, p.DiscountType)
}

// IsPendingApproval reports whether a seller product awaits approval.
func (p *Product) IsPendingApproval() bool {
	return p.AddedBy == AddedBySeller && !p.Approved
}

// TotalStock sums stock quantities.
func TotalStock(stocks []Stock) int {
	total := 0
	for _, s := range stocks {
		total += s.Qty
	}
	return total
}
