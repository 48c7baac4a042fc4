// Package slug builds URL slugs for catalog entities.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"
)

// Make lowercases s and collapses every run of non-alphanumerics into a single dash.
// Leading and trailing dashes are trimmed; an empty result becomes "item".
func Make(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "item"
	}
	return out
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Unique returns Make(s), suffixed with -2, -3, ... until exists reports it free.
// PRE: exists is non-nil
// POST: Returns a slug for which exists returned false
func Unique(ctx context.Context, s string, exists ExistsFunc) (string, error) {
	base := Make(s)
	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
