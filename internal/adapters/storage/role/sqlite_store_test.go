package role

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/adapters/storage/storagetest"
	domain "marketadmin/internal/domain/role"
)

func TestSaveGetPermissions(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	r := domain.Role{ID: "r1", Name: "Catalog", Permissions: []string{domain.PermReviews, domain.PermProducts, domain.PermProducts}, CreatedAt: storagetest.Now}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.GetByID(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{domain.PermProducts, domain.PermReviews}
	if diff := cmp.Diff(want, got.Permissions); diff != "" {
		t.Errorf("permissions (-want +got):\n%s", diff)
	}

	got.Name = "Catalogue"
	got.Permissions = []string{domain.PermBanners}
	if err := s.Save(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetByID(ctx, "r1")
	if got.Name != "Catalogue" || !got.Has(domain.PermBanners) || got.Has(domain.PermProducts) {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestDelete_InUse(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	s.Save(ctx, domain.Role{ID: "r1", Name: "Support", Permissions: []string{domain.PermContacts}, CreatedAt: storagetest.Now})
	storagetest.Exec(t, db, `INSERT INTO staff_account (id, name, email, role_id, created_at) VALUES ('s1', 'Sam', 'sam@example.com', 'r1', ?)`,
		storage.FormatTime(storagetest.Now))

	if err := s.Delete(ctx, "r1"); !errors.Is(err, domain.ErrInUse) {
		t.Fatalf("Delete in use = %v, want ErrInUse", err)
	}
	counts, err := s.StaffCounts(ctx)
	if err != nil || counts["r1"] != 1 {
		t.Errorf("StaffCounts = %v, %v", counts, err)
	}

	storagetest.Exec(t, db, "DELETE FROM staff_account")
	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete unused: %v", err)
	}
	if err := s.Delete(ctx, "r1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Delete missing = %v, want ErrNoRows", err)
	}
}

func TestListSearch(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	for i, name := range []string{"Support", "Catalog", "Supervisor"} {
		s.Save(ctx, domain.Role{ID: string(rune('a' + i)), Name: name, Permissions: []string{domain.PermDashboard}, CreatedAt: storagetest.Now})
	}
	f := ListFilter{storage.ListOptions{Search: "sup", Sort: "name", Dir: "desc"}}
	n, _ := s.Count(ctx, f)
	list, err := s.List(ctx, f)
	if err != nil || n != 2 || len(list) != 2 || list[0].Name != "Support" {
		t.Errorf("List = %+v (count %d), %v", list, n, err)
	}
	all, _ := s.All(ctx)
	if len(all) != 3 || all[0].Name != "Catalog" {
		t.Errorf("All = %+v", all)
	}
}
