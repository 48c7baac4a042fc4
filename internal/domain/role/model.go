package role

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Permission keys, one per admin page group.
const (
	PermDashboard      = "dashboard"
	PermProducts       = "products"
	PermCategories     = "categories"
	PermBanners        = "banners"
	PermFlashDeals     = "flash_deals"
	PermReviews        = "reviews"
	PermContacts       = "contacts"
	PermSellerPackages = "seller_packages"
	PermStaff          = "staff"
	PermSettings       = "settings"
	PermAudit          = "audit"
)

// AllPermissions lists every permission in sidebar order.
var AllPermissions = []string{
	PermDashboard, PermProducts, PermCategories, PermBanners, PermFlashDeals,
	PermReviews, PermContacts, PermSellerPackages, PermStaff, PermSettings, PermAudit,
}

// Labels maps permission keys to display names.
var Labels = map[string]string{
	PermDashboard:      "Dashboard",
	PermProducts:       "Products",
	PermCategories:     "Categories",
	PermBanners:        "Banners",
	PermFlashDeals:     "Flash Deals",
	PermReviews:        "Reviews",
	PermContacts:       "Contacts",
	PermSellerPackages: "Seller Packages",
	PermStaff:          "Staff & Roles",
	PermSettings:       "Business Settings",
	PermAudit:          "Audit Log",
}

// Domain errors
var (
	ErrEmptyName         = errors.New("role name cannot be empty")
	ErrNameTooLong       = errors.New("role name cannot exceed 60 characters")
	ErrNoPermissions     = errors.New("role must grant at least one permission")
	ErrUnknownPermission = errors.New("unknown permission")
	ErrInUse             = errors.New("role is assigned to staff and cannot be deleted")
)

// Role is a named set of page permissions assigned to staff accounts.
type Role struct {
	ID          string
	Name        string
	Permissions []string
	CreatedAt   time.Time
}

// Validate checks if the Role has valid data.
// PRE: Role struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Role) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(r.Name) > 60 {
		return ErrNameTooLong
	}
	if len(r.Permissions) == 0 {
		return ErrNoPermissions
	}
	for _, p := range r.Permissions {
		if !IsKnown(p) {
			return ErrUnknownPermission
		}
	}
	return nil
}

// Has reports whether the role grants the permission.
func (r *Role) Has(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Normalize removes duplicates and orders permissions as in AllPermissions.
func Normalize(perms []string) []string {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	out := make([]string, 0, len(set))
	for _, p := range AllPermissions {
		if set[p] {
			out = append(out, p)
			delete(set, p)
		}
	}
	// unknown keys are kept at the end so Validate can reject them
	for p := range set {
		out = append(out, p)
	}
	return out
}

// IsKnown reports whether the permission key exists.
func IsKnown(permission string) bool {
	_, ok := Labels[permission]
	return ok
}
