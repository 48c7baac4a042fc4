package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/domain/role"
)

// RoleStoreForOrchestrator defines the store interface needed by SaveRole.
type RoleStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (role.Role, error)
	Save(ctx context.Context, r role.Role) error
}

// ErrRoleNameTaken is returned when another role already has the name.
var ErrRoleNameTaken = errors.New("a role with this name already exists")

// SaveRoleInput carries the role form. An empty ID creates a new role.
type SaveRoleInput struct {
	ID          string
	Name        string
	Permissions []string
}

// SaveRoleDeps holds dependencies for SaveRole.
type SaveRoleDeps struct {
	RoleStore  RoleStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSaveRole creates or updates a role.
// PRE: none
// POST: Role persisted with known, de-duplicated permissions
func ExecuteSaveRole(ctx context.Context, input SaveRoleInput, deps SaveRoleDeps) (role.Role, error) {
	r := role.Role{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	if input.ID != "" {
		existing, err := deps.RoleStore.GetByID(ctx, input.ID)
		if err != nil {
			return role.Role{}, ErrRoleNotFound
		}
		r = existing
	}
	r.Name = strings.TrimSpace(input.Name)
	r.Permissions = role.Normalize(input.Permissions)
	if err := r.Validate(); err != nil {
		return role.Role{}, err
	}
	if err := deps.RoleStore.Save(ctx, r); err != nil {
		if storage.IsUniqueViolation(err) {
			return role.Role{}, ErrRoleNameTaken
		}
		return role.Role{}, err
	}
	return r, nil
}
