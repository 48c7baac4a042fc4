package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names the operation that was performed. Page actions reuse the AJAX
// action string ("toggle_featured", "delete", ...); the constants below cover
// form saves and session events.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
)

// Event represents a single audit log entry.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorID    string    `json:"actor_id"`
	ActorEmail string    `json:"actor_email"`
	Page       string    `json:"page"`
	Action     Action    `json:"action"`
	ResourceID string    `json:"resource_id"`
	Detail     string    `json:"detail"`
	IPAddress  string    `json:"ip_address"`
}

// NewEvent creates a new audit event with the current timestamp.
// PRE: actorID, page and action are non-empty
// POST: Returns an Event with a fresh ID and the current UTC timestamp
func NewEvent(actorID, actorEmail, page string, action Action) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		ActorID:    actorID,
		ActorEmail: actorEmail,
		Page:       page,
		Action:     action,
	}
}

// WithResource sets the affected row.
func (e Event) WithResource(id string) Event {
	e.ResourceID = id
	return e
}

// WithDetail sets a short human-readable description.
func (e Event) WithDetail(detail string) Event {
	e.Detail = detail
	return e
}

// WithIP records the client address.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}
