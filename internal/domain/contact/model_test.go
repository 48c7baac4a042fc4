package contact

import (
	"strings"
	"testing"
	"time"
)

// TestValidateReply covers empty, oversized, and missing-address replies.
func TestValidateReply(t *testing.T) {
	c := Contact{Email: "buyer@example.com"}
	if _, err := c.ValidateReply("   "); err != ErrEmptyReply {
		t.Errorf("blank = %v", err)
	}
	long := make([]byte, MaxReplyLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := c.ValidateReply(string(long)); err != ErrReplyTooLong {
		t.Errorf("long = %v", err)
	}
	if _, err := c.ValidateReply(strings.Repeat("ệ", MaxReplyLength)); err != nil {
		t.Errorf("accented reply at the limit = %v", err)
	}
	got, err := c.ValidateReply("  Thanks!  ")
	if err != nil || got != "Thanks!" {
		t.Errorf("ValidateReply = %q, %v", got, err)
	}
	noMail := Contact{}
	if _, err := noMail.ValidateReply("hi"); err != ErrNoEmail {
		t.Errorf("no email = %v", err)
	}
}

// TestMarkReplied sets reply state.
func TestMarkReplied(t *testing.T) {
	c := Contact{Email: "buyer@example.com"}
	if c.IsReplied() {
		t.Fatal("new contact reported replied")
	}
	now := time.Now()
	c.MarkReplied("Thanks", now)
	if !c.IsReplied() || !c.Viewed || c.Reply != "Thanks" || !c.RepliedAt.Equal(now) {
		t.Errorf("unexpected state %+v", c)
	}
}
