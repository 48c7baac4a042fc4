package contact

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxReplyLength bounds the reply body.
const MaxReplyLength = 10000

// Domain errors
var (
	ErrEmptyReply   = errors.New("reply cannot be empty")
	ErrReplyTooLong = errors.New("reply is too long")
	ErrNoEmail      = errors.New("contact has no email address")
)

// Contact is a message left through the storefront contact form.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Content   string
	Reply     string
	RepliedAt *time.Time
	Viewed    bool
	CreatedAt time.Time
}

// IsReplied reports whether an answer has been sent.
func (c *Contact) IsReplied() bool {
	return c.RepliedAt != nil
}

// ValidateReply checks a reply body before it is sent.
// PRE: text is the raw reply from the form
// POST: Returns the trimmed reply or an error
func (c *Contact) ValidateReply(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyReply
	}
	if utf8.RuneCountInString(text) > MaxReplyLength {
		return "", ErrReplyTooLong
	}
	if strings.TrimSpace(c.Email) == "" {
		return "", ErrNoEmail
	}
	return text, nil
}

// MarkReplied stores the reply.
// PRE: text passed ValidateReply
// POST: Reply and RepliedAt are set, Viewed is true
func (c *Contact) MarkReplied(text string, now time.Time) {
	c.Reply = text
	c.RepliedAt = &now
	c.Viewed = true
}

// Subject returns the email subject for a reply.
func Subject(siteName string) string {
	return "Re: your message to " + siteName
}
