package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketadmin/internal/adapters/email"
	"marketadmin/internal/domain/contact"
)

// ContactStoreForReply defines the store interface needed by ReplyContact.
type ContactStoreForReply interface {
	GetByID(ctx context.Context, id string) (contact.Contact, error)
	SaveReply(ctx context.Context, id, reply string, at time.Time) error
}

var (
	ErrContactNotFound = errors.New("contact message not found")
	ErrReplyNotSent    = errors.New("reply could not be sent, nothing was saved")
)

// ReplyContactInput carries a reply to a storefront message.
type ReplyContactInput struct {
	ContactID string
	Reply     string // markdown
	SiteName  string
	ReplyTo   string // business contact email
}

// ReplyContactDeps holds dependencies for ReplyContact.
type ReplyContactDeps struct {
	ContactStore ContactStoreForReply
	Sender       email.Sender
	Render       func(markdown string) (string, error)
	Now          func() time.Time
}

// ExecuteReplyContact emails a reply to the author of a contact message and
// records it.
// PRE: none
// POST: The reply is stored only after the email was accepted for delivery
func ExecuteReplyContact(ctx context.Context, input ReplyContactInput, deps ReplyContactDeps) (contact.Contact, error) {
	c, err := deps.ContactStore.GetByID(ctx, input.ContactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, ErrContactNotFound
		}
		return contact.Contact{}, err
	}
	text, err := c.ValidateReply(input.Reply)
	if err != nil {
		return contact.Contact{}, err
	}
	html, err := deps.Render(text)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("render reply: %w", err)
	}

	res, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      []string{c.Email},
		Subject: contact.Subject(input.SiteName),
		HTML:    html,
		Text:    text,
		ReplyTo: input.ReplyTo,
	})
	if err != nil {
		slog.Warn("contact_reply_failed", "contact_id", c.ID, "error", err)
		return contact.Contact{}, fmt.Errorf("%w: %v", ErrReplyNotSent, err)
	}

	now := deps.Now()
	if err := deps.ContactStore.SaveReply(ctx, c.ID, text, now); err != nil {
		return contact.Contact{}, err
	}
	c.MarkReplied(text, now)
	slog.Info("contact_replied", "contact_id", c.ID, "message_id", res.MessageID)
	return c, nil
}
