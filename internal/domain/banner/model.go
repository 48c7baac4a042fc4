package banner

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Storefront banner slots.
const (
	PositionHomeTop    = 1
	PositionHomeMiddle = 2
	PositionHomeBottom = 3
)

// PositionLabels names each slot.
var PositionLabels = map[int]string{
	PositionHomeTop:    "Home - top slider",
	PositionHomeMiddle: "Home - middle",
	PositionHomeBottom: "Home - bottom",
}

// Domain errors
var (
	ErrEmptyTitle      = errors.New("banner title cannot be empty")
	ErrInvalidURL      = errors.New("banner link must be an http or https URL")
	ErrInvalidPosition = errors.New("banner position must be 1, 2 or 3")
	ErrImageRequired   = errors.New("banner image is required")
)

// Banner is a storefront promotional image.
type Banner struct {
	ID        string
	Title     string
	URL       string
	Position  int
	UploadID  string
	Published bool
	CreatedAt time.Time
}

// Validate checks if the Banner has valid data.
// PRE: Banner struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Banner) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyTitle
	}
	if _, ok := PositionLabels[b.Position]; !ok {
		return ErrInvalidPosition
	}
	if b.URL != "" {
		u, err := url.Parse(b.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidURL
		}
	}
	if b.UploadID == "" {
		return ErrImageRequired
	}
	return nil
}
