package orchestrators

import (
	"context"
	"log/slog"

	"marketadmin/internal/domain/audit"
)

// AuditStoreForRecord defines the store interface needed by RecordAudit.
type AuditStoreForRecord interface {
	Save(ctx context.Context, event audit.Event) error
}

// ExecuteRecordAudit persists an audit event. The mutation it describes has
// already committed, so a failure is logged and not returned.
func ExecuteRecordAudit(ctx context.Context, event audit.Event, store AuditStoreForRecord) {
	slog.Info("admin_action",
		"actor", event.ActorEmail,
		"page", event.Page,
		"action", event.Action,
		"resource_id", event.ResourceID,
	)
	if err := store.Save(ctx, event); err != nil {
		slog.Error("audit_save_failed", "event_id", event.ID, "error", err)
	}
}
