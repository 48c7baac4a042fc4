package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"marketadmin/internal/domain/role"
	"marketadmin/internal/domain/staff"
)

// StaffStoreForLogin defines the store interface needed by Login.
type StaffStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (staff.Account, error)
	Save(ctx context.Context, a staff.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	AccountID string
	Email     string
	UserType  string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	StaffStore StaffStoreForLogin
	Now        func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts, try again later")
	ErrAccountBanned      = errors.New("account has been banned")
)

// ExecuteLogin validates credentials and returns account info for session creation.
// PRE: none
// POST: Returns account info on success; a wrong password is counted and may lock the account
// INVARIANT: Locked and banned accounts never log in
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := deps.Now()

	acct, err := deps.StaffStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if err := deps.StaffStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "record_failed_login", "email", email, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		if acct.IsLocked(now) {
			return LoginResult{}, ErrAccountLocked
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	// Banned is checked after the password so it does not reveal which emails exist.
	if acct.IsBanned() {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "banned")
		return LoginResult{}, ErrAccountBanned
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := deps.StaffStore.Save(ctx, acct); err != nil {
			return LoginResult{}, err
		}
	}

	slog.Info("auth_event", "event", "login_success", "email", acct.Email, "user_type", acct.UserType)
	return LoginResult{
		AccountID: acct.ID,
		Email:     acct.Email,
		UserType:  acct.UserType,
	}, nil
}

// StaffStoreForPrincipal defines the store interface needed to resolve a session's account.
type StaffStoreForPrincipal interface {
	GetByID(ctx context.Context, id string) (staff.Account, error)
}

// RoleStoreForPrincipal defines the role lookup needed to resolve permissions.
type RoleStoreForPrincipal interface {
	GetByID(ctx context.Context, id string) (role.Role, error)
}

// Principal is the signed-in account with its effective permissions.
type Principal struct {
	AccountID   string
	Name        string
	Email       string
	UserType    string
	Permissions []string
}

// Can reports whether the principal may use the page guarded by permission.
// Admins pass every check.
func (p Principal) Can(permission string) bool {
	if p.UserType == staff.TypeAdmin {
		return true
	}
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

// PrincipalDeps holds dependencies for LoadPrincipal.
type PrincipalDeps struct {
	StaffStore StaffStoreForPrincipal
	RoleStore  RoleStoreForPrincipal
}

// ErrAccountUnavailable is returned when a session's account was deleted or banned.
var ErrAccountUnavailable = errors.New("account is no longer available")

// ExecuteLoadPrincipal resolves the account behind a session on every request,
// so bans and role changes apply without logging out.
// PRE: accountID came from a valid session
// POST: Returns the principal, or ErrAccountUnavailable for deleted or banned accounts.
// Store failures pass through so a transient error does not end the session.
func ExecuteLoadPrincipal(ctx context.Context, accountID string, deps PrincipalDeps) (Principal, error) {
	acct, err := deps.StaffStore.GetByID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, ErrAccountUnavailable
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load account %s: %w", accountID, err)
	}
	if acct.IsBanned() {
		return Principal{}, ErrAccountUnavailable
	}
	p := Principal{
		AccountID: acct.ID,
		Name:      acct.Name,
		Email:     acct.Email,
		UserType:  acct.UserType,
	}
	if acct.IsAdmin() || acct.RoleID == "" {
		return p, nil
	}
	r, err := deps.RoleStore.GetByID(ctx, acct.RoleID)
	if err != nil {
		return Principal{}, err
	}
	p.Permissions = r.Permissions
	return p, nil
}
