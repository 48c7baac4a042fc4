package audit

import (
	"context"

	"marketadmin/internal/adapters/storage"
	domain "marketadmin/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID, actor and page
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns one page of events matching the filter.
	// POST: Returns events ordered by the filter's sort, newest first by default
	List(ctx context.Context, filter Filter) ([]domain.Event, error)

	// Count returns the number of events matching the filter.
	Count(ctx context.Context, filter Filter) (int, error)
}

// Filter defines query parameters for listing audit events.
type Filter struct {
	storage.ListOptions
	Page    string
	Action  string
	ActorID string
}

// SortColumns maps request sort names to columns.
var SortColumns = map[string]string{
	"timestamp": "timestamp",
	"page":      "page",
	"action":    "action",
}

var _ Store = (*SQLiteStore)(nil)
