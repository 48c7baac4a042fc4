package sellerpackage

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("package name cannot be empty")
	ErrNameTooLong     = errors.New("package name cannot exceed 120 characters")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrNegativeLimit   = errors.New("product upload limit cannot be negative")
	ErrInvalidDuration = errors.New("duration must be at least one day")
)

// Package is a subscription tier sold to sellers.
type Package struct {
	ID                 string
	Name               string
	Amount             float64
	ProductUploadLimit int
	DurationDays       int
	LogoUploadID       string
	CreatedAt          time.Time
}

// Translation is a localised package name.
type Translation struct {
	SellerPackageID string
	Lang            string
	Name            string
}

// Validate checks if the Package has valid data.
// PRE: Package struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Package) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 120 {
		return ErrNameTooLong
	}
	if p.Amount < 0 {
		return ErrNegativeAmount
	}
	if p.ProductUploadLimit < 0 {
		return ErrNegativeLimit
	}
	if p.DurationDays < 1 {
		return ErrInvalidDuration
	}
	return nil
}

// IsFree reports whether the package costs nothing.
func (p *Package) IsFree() bool {
	return p.Amount == 0
}
