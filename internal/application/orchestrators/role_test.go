package orchestrators

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	roleStore "marketadmin/internal/adapters/storage/role"
	"marketadmin/internal/adapters/storage/storagetest"
	"marketadmin/internal/domain/role"
)

func TestExecuteSaveRole(t *testing.T) {
	ctx := context.Background()
	store := roleStore.NewSQLiteStore(storagetest.OpenDB(t))
	deps := SaveRoleDeps{RoleStore: store, GenerateID: seqIDs("role"), Now: testNow}

	r, err := ExecuteSaveRole(ctx, SaveRoleInput{
		Name:        "  Support  ",
		Permissions: []string{role.PermContacts, role.PermDashboard, role.PermContacts},
	}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Name != "Support" {
		t.Errorf("name = %q, want trimmed", r.Name)
	}
	if diff := cmp.Diff([]string{role.PermDashboard, role.PermContacts}, r.Permissions); diff != "" {
		t.Errorf("permissions (-want +got):\n%s", diff)
	}

	if _, err := ExecuteSaveRole(ctx, SaveRoleInput{Name: "Support", Permissions: []string{role.PermReviews}}, deps); !errors.Is(err, ErrRoleNameTaken) {
		t.Errorf("duplicate name: err = %v, want ErrRoleNameTaken", err)
	}
	if _, err := ExecuteSaveRole(ctx, SaveRoleInput{Name: "Odd", Permissions: []string{"launch_rockets"}}, deps); !errors.Is(err, role.ErrUnknownPermission) {
		t.Errorf("unknown permission: err = %v", err)
	}
	if _, err := ExecuteSaveRole(ctx, SaveRoleInput{ID: "missing", Name: "X", Permissions: []string{role.PermAudit}}, deps); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("edit missing role: err = %v", err)
	}

	edited, err := ExecuteSaveRole(ctx, SaveRoleInput{ID: r.ID, Name: "Support", Permissions: []string{role.PermReviews}}, deps)
	if err != nil {
		t.Fatalf("edit keeping its own name: %v", err)
	}
	if edited.ID != r.ID || !edited.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("edit changed identity: %+v", edited)
	}
}
