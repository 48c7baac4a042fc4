package review

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Review statuses; only published reviews count towards a product's rating.
const (
	StatusPublished = "published"
	StatusHidden    = "hidden"
)

// Domain errors
var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus  = errors.New("status must be published or hidden")
	ErrEmptyCustomer  = errors.New("customer name cannot be empty")
	ErrProductMissing = errors.New("review must reference a product")
)

// Review is a customer review of a product.
type Review struct {
	ID           string
	ProductID    string
	ProductName  string // joined for display
	CustomerName string
	Rating       int
	Comment      string
	Status       string
	Viewed       bool
	CreatedAt    time.Time
}

// Validate checks if the Review has valid data.
// PRE: Review struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Review) Validate() error {
	if r.ProductID == "" {
		return ErrProductMissing
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return ErrEmptyCustomer
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if r.Status != StatusPublished && r.Status != StatusHidden {
		return ErrInvalidStatus
	}
	return nil
}

// IsPublished reports whether the review counts towards the product rating.
func (r *Review) IsPublished() bool {
	return r.Status == StatusPublished
}

// ToggleStatus flips between published and hidden.
// POST: Status is the opposite of its previous value
func (r *Review) ToggleStatus() {
	if r.IsPublished() {
		r.Status = StatusHidden
	} else {
		r.Status = StatusPublished
	}
}

// Average returns the mean of ratings rounded to two decimals, or 0 when empty.
func Average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return math.Round(float64(sum)/float64(len(ratings))*100) / 100
}
