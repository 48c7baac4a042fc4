package category

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength bounds category names.
const MaxNameLength = 120

// Domain errors
var (
	ErrEmptyName         = errors.New("category name cannot be empty")
	ErrNameTooLong       = errors.New("category name cannot exceed 120 characters")
	ErrInvalidCommission = errors.New("commission rate must be between 0 and 100")
	ErrSelfParent        = errors.New("a category cannot be its own parent")
	ErrDescendantParent  = errors.New("a category cannot be moved under one of its subcategories")
	ErrInvalidOrderLevel = errors.New("order level cannot be negative")
	ErrEmptyTranslation  = errors.New("translation language cannot be empty")
)

// Category is a node of the product category tree.
type Category struct {
	ID             string
	ParentID       string // empty for root categories
	Level          int    // 0 for roots
	Name           string
	Slug           string
	BannerUploadID string
	IconUploadID   string
	Featured       bool
	CommissionRate float64
	OrderLevel     int
	CreatedAt      time.Time
}

// Translation is a localised category name.
type Translation struct {
	CategoryID string
	Lang       string
	Name       string
}

// Validate checks if the Category has valid data.
// PRE: Category struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if c.CommissionRate < 0 || c.CommissionRate > 100 {
		return ErrInvalidCommission
	}
	if c.OrderLevel < 0 {
		return ErrInvalidOrderLevel
	}
	if c.ParentID != "" && c.ParentID == c.ID {
		return ErrSelfParent
	}
	return nil
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == ""
}

// Descendants returns the ids of every category below rootID, given the full tree.
// The result is breadth-first and does not include rootID.
func Descendants(all []Category, rootID string) []string {
	children := make(map[string][]string)
	for _, c := range all {
		if c.ParentID != "" {
			children[c.ParentID] = append(children[c.ParentID], c.ID)
		}
	}
	var out []string
	seen := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// CheckParent verifies that moving id under parentID keeps the tree acyclic.
// PRE: all holds every category
// POST: Returns nil when parentID is empty or not below id
func CheckParent(all []Category, id, parentID string) error {
	if parentID == "" || id == "" {
		return nil
	}
	if id == parentID {
		return ErrSelfParent
	}
	for _, d := range Descendants(all, id) {
		if d == parentID {
			return ErrDescendantParent
		}
	}
	return nil
}

// Node is a category with its display depth, used for indented dropdowns.
type Node struct {
	Category
	Depth int
}

// Flatten orders categories depth-first (children after their parent, siblings by
// order level then name) and records each node's depth.
func Flatten(all []Category) []Node {
	children := make(map[string][]Category)
	for _, c := range all {
		children[c.ParentID] = append(children[c.ParentID], c)
	}
	for k := range children {
		sortSiblings(children[k])
	}
	var out []Node
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, c := range children[parent] {
			out = append(out, Node{Category: c, Depth: depth})
			if depth < 32 {
				walk(c.ID, depth+1)
			}
		}
	}
	walk("", 0)
	return out
}

func sortSiblings(cs []Category) {
	sort.SliceStable(cs, func(i, j int) bool { return less(cs[i], cs[j]) })
}

func less(a, b Category) bool {
	if a.OrderLevel != b.OrderLevel {
		return a.OrderLevel > b.OrderLevel
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}
