package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"marketadmin/internal/application/listutil"
	"marketadmin/internal/domain/setting"
)

// SettingStoreForOrchestrator defines the store interface needed by settings orchestrators.
type SettingStoreForOrchestrator interface {
	SaveMany(ctx context.Context, values map[string]string, now time.Time) error
	SeedDefaults(ctx context.Context, defaults map[string]string, now time.Time) (int, error)
}

// SettingsDeps holds dependencies for the settings orchestrators.
type SettingsDeps struct {
	SettingStore SettingStoreForOrchestrator
	Now          func() time.Time
}

// ExecuteSeedSettings inserts the embedded defaults for every setting that has no row yet.
// POST: Existing values are untouched; returns the number of rows inserted
func ExecuteSeedSettings(ctx context.Context, deps SettingsDeps) (int, error) {
	n, err := deps.SettingStore.SeedDefaults(ctx, setting.Defaults(), deps.Now())
	if err != nil {
		return 0, fmt.Errorf("seed settings: %w", err)
	}
	if n > 0 {
		slog.Info("settings_seeded", "count", n)
	}
	return n, nil
}

// SettingError names the setting that failed validation.
type SettingError struct {
	Type  string
	Label string
	Err   error
}

func (e *SettingError) Error() string { return e.Label + ": " + e.Err.Error() }

func (e *SettingError) Unwrap() error { return e.Err }

// ExecuteSaveSettings validates submitted values and stores them in one transaction.
// Keys that are not known settings are ignored.
// PRE: form maps setting type to raw submitted value
// POST: Either every known value is stored or none is
func ExecuteSaveSettings(ctx context.Context, form map[string]string, deps SettingsDeps) (map[string]string, error) {
	values := make(map[string]string, len(form))
	for _, def := range setting.Definitions() {
		raw, ok := form[def.Type]
		if !ok {
			// unchecked checkboxes are not submitted
			if def.Kind != setting.KindBool {
				continue
			}
			raw = "0"
		}
		v, err := setting.Normalize(def.Type, raw)
		if err != nil {
			return nil, &SettingError{Type: def.Type, Label: def.Label, Err: err}
		}
		if def.Type == setting.ItemsPerPage {
			n, _ := strconv.Atoi(v)
			if !listutil.IsValidPerPage(n) {
				return nil, &SettingError{Type: def.Type, Label: def.Label,
					Err: fmt.Errorf("must be one of %v", listutil.PerPageOptions)}
			}
		}
		values[def.Type] = v
	}
	if err := deps.SettingStore.SaveMany(ctx, values, deps.Now()); err != nil {
		return nil, err
	}
	return values, nil
}
