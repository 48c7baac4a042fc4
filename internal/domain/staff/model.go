package staff

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
	MaxNameLength  = 120
	MinPassword    = 8
)

// User types
const (
	TypeAdmin = "admin" // superuser, bypasses role permissions
	TypeStaff = "staff" // limited by the permissions of RoleID
)

// Account statuses
const (
	StatusActive = "active"
	StatusBanned = "banned"
)

// Lockout policy
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// Domain errors
var (
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name cannot exceed 120 characters")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrInvalidUserType  = errors.New("user type must be one of: admin, staff")
	ErrInvalidStatus    = errors.New("status must be one of: active, banned")
	ErrRoleRequired     = errors.New("staff accounts must have a role")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrAdminImmutable   = errors.New("admin accounts cannot be banned or deleted here")
)

// Account is a back-office login: the marketplace owner (admin) or a staff member.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	UserType     string
	RoleID       string // empty for admins
	Status       string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(a.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if utf8.RuneCountInString(a.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if a.UserType != TypeAdmin && a.UserType != TypeStaff {
		return ErrInvalidUserType
	}
	if a.Status != StatusActive && a.Status != StatusBanned {
		return ErrInvalidStatus
	}
	if a.UserType == TypeStaff && a.RoleID == "" {
		return ErrRoleRequired
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= MinPassword characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPassword {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account
// after MaxFailedLogins failures.
// POST: FailedLogins incremented; LockedUntil set when the limit is reached
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// IsAdmin returns true for the marketplace owner account type.
func (a *Account) IsAdmin() bool {
	return a.UserType == TypeAdmin
}

// IsBanned returns true if the account may not log in.
func (a *Account) IsBanned() bool {
	return a.Status == StatusBanned
}

// ToggleBan flips the account between active and banned.
// PRE: account is a staff account
// POST: Status toggled
func (a *Account) ToggleBan() error {
	if a.IsAdmin() {
		return ErrAdminImmutable
	}
	if a.Status == StatusBanned {
		a.Status = StatusActive
	} else {
		a.Status = StatusBanned
	}
	return nil
}
