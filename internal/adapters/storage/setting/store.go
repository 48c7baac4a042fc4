package setting

import (
	"context"
	"time"

	domain "marketadmin/internal/domain/setting"
)

// Store persists business settings.
type Store interface {
	All(ctx context.Context) (domain.Values, error)
	SaveMany(ctx context.Context, values map[string]string, now time.Time) error
	SeedDefaults(ctx context.Context, defaults map[string]string, now time.Time) (int, error)
}

var _ Store = (*SQLiteStore)(nil)
