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

// StaffStoreForOrchestrator defines the store interface needed by staff orchestrators.
type StaffStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (staff.Account, error)
	GetByEmail(ctx context.Context, email string) (staff.Account, error)
	Save(ctx context.Context, a staff.Account) error
	Delete(ctx context.Context, id string) error
}

// RoleGetter looks up a role by id.
type RoleGetter interface {
	GetByID(ctx context.Context, id string) (role.Role, error)
}

var (
	ErrEmailTaken    = errors.New("another account already uses this email")
	ErrSelfAction    = errors.New("you cannot ban or delete your own account")
	ErrRoleNotFound  = errors.New("selected role does not exist")
	ErrStaffNotFound = errors.New("staff account not found")
)

// --- Create Admin ---

// CreateAdminInput carries input for the create admin orchestrator.
type CreateAdminInput struct {
	Name     string
	Email    string
	Password string
}

// CreateAdminDeps holds dependencies for CreateAdmin.
type CreateAdminDeps struct {
	StaffStore StaffStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateAdmin creates the marketplace owner account unless one with the
// same email already exists.
// PRE: Email and Password are non-empty
// POST: Returns the account and whether it was created by this call
func ExecuteCreateAdmin(ctx context.Context, input CreateAdminInput, deps CreateAdminDeps) (staff.Account, bool, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := deps.StaffStore.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return staff.Account{}, false, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Administrator"
	}
	acct := staff.Account{
		ID:        deps.GenerateID(),
		Name:      name,
		Email:     email,
		UserType:  staff.TypeAdmin,
		Status:    staff.StatusActive,
		CreatedAt: deps.Now(),
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return staff.Account{}, false, err
	}
	if err := acct.Validate(); err != nil {
		return staff.Account{}, false, err
	}
	if err := deps.StaffStore.Save(ctx, acct); err != nil {
		return staff.Account{}, false, err
	}
	slog.Info("auth_event", "event", "admin_created", "email", email)
	return acct, true, nil
}

// --- Save Staff ---

// SaveStaffInput carries the staff form. An empty ID creates a new account.
type SaveStaffInput struct {
	ID       string
	Name     string
	Email    string
	RoleID   string
	Password string // required on create, optional on edit
}

// SaveStaffDeps holds dependencies for SaveStaff.
type SaveStaffDeps struct {
	StaffStore StaffStoreForOrchestrator
	RoleStore  RoleGetter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSaveStaff creates or updates a staff account.
// PRE: none
// POST: Account persisted with a unique email and an existing role
// INVARIANT: Admin accounts are never edited through this path
func ExecuteSaveStaff(ctx context.Context, input SaveStaffInput, deps SaveStaffDeps) (staff.Account, error) {
	var acct staff.Account
	if input.ID != "" {
		existing, err := deps.StaffStore.GetByID(ctx, input.ID)
		if err != nil {
			return staff.Account{}, ErrStaffNotFound
		}
		if existing.IsAdmin() {
			return staff.Account{}, staff.ErrAdminImmutable
		}
		acct = existing
	} else {
		acct = staff.Account{
			ID:        deps.GenerateID(),
			UserType:  staff.TypeStaff,
			Status:    staff.StatusActive,
			CreatedAt: deps.Now(),
		}
		if input.Password == "" {
			return staff.Account{}, staff.ErrEmptyPassword
		}
	}

	acct.Name = strings.TrimSpace(input.Name)
	acct.Email = strings.ToLower(strings.TrimSpace(input.Email))
	acct.RoleID = input.RoleID
	if err := acct.Validate(); err != nil {
		return staff.Account{}, err
	}
	if _, err := deps.RoleStore.GetByID(ctx, acct.RoleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return staff.Account{}, ErrRoleNotFound
		}
		return staff.Account{}, err
	}
	if other, err := deps.StaffStore.GetByEmail(ctx, acct.Email); err == nil && other.ID != acct.ID {
		return staff.Account{}, ErrEmailTaken
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return staff.Account{}, err
	}
	if input.Password != "" {
		if err := acct.SetPassword(input.Password); err != nil {
			return staff.Account{}, err
		}
	}
	if err := deps.StaffStore.Save(ctx, acct); err != nil {
		return staff.Account{}, fmt.Errorf("save staff: %w", err)
	}
	return acct, nil
}

// --- Ban / Delete ---

// StaffActionDeps holds dependencies for the ban and delete actions.
type StaffActionDeps struct {
	StaffStore StaffStoreForOrchestrator
}

func loadTargetStaff(ctx context.Context, actorID, targetID string, store StaffStoreForOrchestrator) (staff.Account, error) {
	if actorID == targetID {
		return staff.Account{}, ErrSelfAction
	}
	acct, err := store.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return staff.Account{}, ErrStaffNotFound
		}
		return staff.Account{}, err
	}
	if acct.IsAdmin() {
		return staff.Account{}, staff.ErrAdminImmutable
	}
	return acct, nil
}

// ExecuteToggleStaffBan bans an active staff account or reactivates a banned one.
// PRE: actorID is the signed-in account
// POST: Returns the new status
// INVARIANT: Nobody bans themselves; admins cannot be banned
func ExecuteToggleStaffBan(ctx context.Context, actorID, targetID string, deps StaffActionDeps) (string, error) {
	acct, err := loadTargetStaff(ctx, actorID, targetID, deps.StaffStore)
	if err != nil {
		return "", err
	}
	if err := acct.ToggleBan(); err != nil {
		return "", err
	}
	if err := deps.StaffStore.Save(ctx, acct); err != nil {
		return "", err
	}
	return acct.Status, nil
}

// ExecuteDeleteStaff removes a staff account.
// PRE: actorID is the signed-in account
// INVARIANT: Nobody deletes themselves; admins cannot be deleted
func ExecuteDeleteStaff(ctx context.Context, actorID, targetID string, deps StaffActionDeps) error {
	if _, err := loadTargetStaff(ctx, actorID, targetID, deps.StaffStore); err != nil {
		return err
	}
	return deps.StaffStore.Delete(ctx, targetID)
}
