package role

import "testing"

// TestValidate covers role validation.
func TestValidate(t *testing.T) {
	r := Role{Name: "Catalog", Permissions: []string{PermProducts}}
	if err := r.Validate(); err != nil {
		t.Fatalf("valid role: %v", err)
	}
	r.Name = ""
	if err := r.Validate(); err != ErrEmptyName {
		t.Errorf("empty name = %v", err)
	}
	r.Name = "Catalog"
	r.Permissions = nil
	if err := r.Validate(); err != ErrNoPermissions {
		t.Errorf("no perms = %v", err)
	}
	r.Permissions = []string{"root"}
	if err := r.Validate(); err != ErrUnknownPermission {
		t.Errorf("unknown perm = %v", err)
	}
}

// TestNormalize verifies dedupe and canonical ordering.
func TestNormalize(t *testing.T) {
	got := Normalize([]string{PermSettings, PermProducts, PermSettings, PermDashboard})
	want := []string{PermDashboard, PermProducts, PermSettings}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

// TestHas verifies permission lookup.
func TestHas(t *testing.T) {
	r := Role{Permissions: []string{PermReviews}}
	if !r.Has(PermReviews) || r.Has(PermStaff) {
		t.Error("Has returned wrong result")
	}
}
