package audit

import "testing"

// TestNewEvent checks builder fields and unique IDs.
func TestNewEvent(t *testing.T) {
	e := NewEvent("s1", "admin@example.com", "products", Action("toggle_published")).
		WithResource("p1").
		WithDetail("published=true").
		WithIP("10.0.0.1")
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatal("missing id or timestamp")
	}
	if e.Page != "products" || e.Action != "toggle_published" || e.ResourceID != "p1" || e.Detail != "published=true" || e.IPAddress != "10.0.0.1" {
		t.Errorf("unexpected event %+v", e)
	}
	other := NewEvent("s1", "admin@example.com", "products", ActionDelete)
	if other.ID == e.ID {
		t.Error("expected distinct IDs")
	}
}
