package email

import (
	"context"
	"errors"
	"testing"
)

func TestNoopSender(t *testing.T) {
	s := NewNoopSender()
	res, err := s.Send(context.Background(), SendRequest{To: []string{"ana@example.com"}, Subject: "Re: hello"})
	if err != nil {
		t.Fatal(err)
	}
	if res.MessageID == "" || res.SentAt.IsZero() {
		t.Errorf("empty result: %+v", res)
	}
	if got := s.Sent(); len(got) != 1 || got[0].Subject != "Re: hello" {
		t.Errorf("Sent = %+v", got)
	}

	if _, err := s.Send(context.Background(), SendRequest{Subject: "nobody"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("no recipient: err = %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("", "from@example.com").(*NoopSender); !ok {
		t.Error("empty key should give a NoopSender")
	}
	if _, ok := New("re_test", "from@example.com").(*ResendSender); !ok {
		t.Error("key should give a ResendSender")
	}
}
