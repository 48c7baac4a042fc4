package category

import (
	"strings"
	"testing"
)

func tree() []Category {
	return []Category{
		{ID: "root", Name: "Electronics"},
		{ID: "phones", ParentID: "root", Name: "Phones", Level: 1},
		{ID: "laptops", ParentID: "root", Name: "Laptops", Level: 1, OrderLevel: 5},
		{ID: "android", ParentID: "phones", Name: "Android", Level: 2},
		{ID: "fashion", Name: "Fashion"},
	}
}

// TestDescendants verifies breadth-first collection below a node.
func TestDescendants(t *testing.T) {
	got := Descendants(tree(), "root")
	if len(got) != 3 {
		t.Fatalf("Descendants(root) = %v, want 3 ids", got)
	}
	if len(Descendants(tree(), "fashion")) != 0 {
		t.Error("leaf should have no descendants")
	}
}

// TestCheckParent rejects cycles.
func TestCheckParent(t *testing.T) {
	all := tree()
	if err := CheckParent(all, "root", "android"); err != ErrDescendantParent {
		t.Errorf("moving root under android = %v, want ErrDescendantParent", err)
	}
	if err := CheckParent(all, "phones", "phones"); err != ErrSelfParent {
		t.Errorf("self parent = %v, want ErrSelfParent", err)
	}
	if err := CheckParent(all, "android", "fashion"); err != nil {
		t.Errorf("valid move = %v", err)
	}
}

// TestFlatten verifies depth-first order with sibling ordering.
func TestFlatten(t *testing.T) {
	nodes := Flatten(tree())
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	want := []string{"root", "laptops", "phones", "android", "fashion"}
	if len(ids) != len(want) {
		t.Fatalf("Flatten = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Flatten[%d] = %s, want %s (all: %v)", i, ids[i], want[i], ids)
		}
	}
	if nodes[3].Depth != 2 {
		t.Errorf("android depth = %d, want 2", nodes[3].Depth)
	}
}

// TestValidate covers category validation.
func TestValidate(t *testing.T) {
	c := Category{ID: "a", Name: "A"}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	c.CommissionRate = 101
	if err := c.Validate(); err != ErrInvalidCommission {
		t.Errorf("commission = %v", err)
	}
	c.CommissionRate = 5
	c.ParentID = "a"
	if err := c.Validate(); err != ErrSelfParent {
		t.Errorf("self parent = %v", err)
	}

	c.ParentID = ""
	c.Name = strings.Repeat("ệ", MaxNameLength)
	if err := c.Validate(); err != nil {
		t.Errorf("accented name at the limit = %v", err)
	}
	c.Name += "ệ"
	if err := c.Validate(); err != ErrNameTooLong {
		t.Errorf("name over the limit = %v", err)
	}
}

func TestIsRoot(t *testing.T) {
	for _, c := range tree() {
		if got, want := c.IsRoot(), c.ParentID == ""; got != want {
			t.Errorf("%s: IsRoot = %v, want %v", c.ID, got, want)
		}
	}
}
