package flashdeal

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"marketadmin/internal/domain/product"
)

// Text color presets for the deal banner.
const (
	TextLight = "light"
	TextDark  = "dark"
)

// Computed states
const (
	StateUpcoming = "upcoming"
	StateRunning  = "running"
	StateExpired  = "expired"
)

// Domain errors
var (
	ErrEmptyTitle       = errors.New("flash deal title cannot be empty")
	ErrTitleTooLong     = errors.New("flash deal title cannot exceed 120 characters")
	ErrInvalidDates     = errors.New("end date must be after start date")
	ErrMissingDates     = errors.New("start and end dates are required")
	ErrInvalidColor     = errors.New("background color must be a #rrggbb hex value")
	ErrInvalidTextColor = errors.New("text color must be light or dark")
	ErrDuplicateProduct = errors.New("a product can only appear once in a flash deal")
	ErrNoProducts       = errors.New("a flash deal needs at least one product")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// FlashDeal is a time-boxed promotion over a set of products.
type FlashDeal struct {
	ID              string
	Title           string
	Slug            string
	StartDate       time.Time
	EndDate         time.Time
	Status          bool // enabled by an admin
	Featured        bool
	BackgroundColor string
	TextColor       string
	BannerUploadID  string
	CreatedAt       time.Time
}

// Line is one product participating in a deal.
type Line struct {
	ID           string
	FlashDealID  string
	ProductID    string
	Discount     float64
	DiscountType string
}

// Translation is a localised deal title.
type Translation struct {
	FlashDealID string
	Lang        string
	Title       string
}

// Validate checks if the FlashDeal has valid data.
// PRE: FlashDeal struct is populated
// POST: Returns nil if valid, error otherwise
func (d *FlashDeal) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(d.Title) > 120 {
		return ErrTitleTooLong
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return ErrMissingDates
	}
	if !d.EndDate.After(d.StartDate) {
		return ErrInvalidDates
	}
	if d.BackgroundColor != "" && !hexColor.MatchString(d.BackgroundColor) {
		return ErrInvalidColor
	}
	if d.TextColor != TextLight && d.TextColor != TextDark {
		return ErrInvalidTextColor
	}
	return nil
}

// ValidateLines checks product lines for duplicates and valid discounts.
// Prices are looked up so amount discounts can be bounded by the product price.
func ValidateLines(lines []Line, prices map[string]float64) error {
	if len(lines) == 0 {
		return ErrNoProducts
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if seen[l.ProductID] {
			return ErrDuplicateProduct
		}
		seen[l.ProductID] = true
		if err := product.ValidateDiscount(prices[l.ProductID], l.Discount, l.DiscountType); err != nil {
			return err
		}
	}
	return nil
}

// State reports whether the deal is upcoming, running, or expired at now.
func (d *FlashDeal) State(now time.Time) string {
	switch {
	case now.Before(d.StartDate):
		return StateUpcoming
	case now.After(d.EndDate):
		return StateExpired
	default:
		return StateRunning
	}
}

// IsLive reports whether the deal is enabled and running at now.
func (d *FlashDeal) IsLive(now time.Time) bool {
	return d.Status && d.State(now) == StateRunning
}
