package staff

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/adapters/storage/storagetest"
	domain "marketadmin/internal/domain/staff"
)

func seedRole(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	storagetest.Exec(t, db, "INSERT INTO role (id, name, permissions, created_at) VALUES (?, ?, '[]', ?)",
		id, "role "+id, storage.FormatTime(storagetest.Now))
}

func account(id, name, email string) domain.Account {
	return domain.Account{
		ID: id, Name: name, Email: email, PasswordHash: "hash",
		UserType: domain.TypeStaff, RoleID: "r1", Status: domain.StatusActive,
		CreatedAt: storagetest.Now,
	}
}

func TestSaveAndGet(t *testing.T) {
	db := storagetest.OpenDB(t)
	seedRole(t, db, "r1")
	s := NewSQLiteStore(db)
	ctx := context.Background()

	a := account("s1", "Mia", "Mia@Example.com ")
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.GetByEmail(ctx, "MIA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Email != "mia@example.com" || got.RoleID != "r1" || !got.LockedUntil.IsZero() {
		t.Errorf("got %+v", got)
	}

	lock := storagetest.Now.Add(15 * time.Minute)
	got.FailedLogins = 5
	got.LockedUntil = lock
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetByID(ctx, "s1")
	if got.FailedLogins != 5 || !got.LockedUntil.Equal(lock) {
		t.Errorf("lockout not persisted: %+v", got)
	}
}

func TestSave_DuplicateEmail(t *testing.T) {
	db := storagetest.OpenDB(t)
	seedRole(t, db, "r1")
	s := NewSQLiteStore(db)
	ctx := context.Background()
	if err := s.Save(ctx, account("s1", "A", "a@example.com")); err != nil {
		t.Fatal(err)
	}
	err := s.Save(ctx, account("s2", "B", "a@example.com"))
	if !storage.IsUniqueViolation(err) {
		t.Errorf("err = %v, want unique violation", err)
	}
}

func TestListFilterSortPage(t *testing.T) {
	db := storagetest.OpenDB(t)
	seedRole(t, db, "r1")
	seedRole(t, db, "r2")
	s := NewSQLiteStore(db)
	ctx := context.Background()

	for _, a := range []domain.Account{
		account("1", "Zoe", "zoe@example.com"),
		account("2", "Adam", "adam@example.com"),
		account("3", "Liam", "liam@shop.test"),
	} {
		if err := s.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	banned := account("4", "Bea", "bea@example.com")
	banned.Status = domain.StatusBanned
	banned.RoleID = "r2"
	if err := s.Save(ctx, banned); err != nil {
		t.Fatal(err)
	}

	f := ListFilter{ListOptions: storage.ListOptions{Search: "example", Sort: "name", Dir: "asc", Limit: 2}}
	total, err := s.Count(ctx, f)
	if err != nil || total != 3 {
		t.Fatalf("Count = %d, %v; want 3", total, err)
	}
	page, err := s.List(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Name != "Adam" || page[1].Name != "Bea" {
		t.Errorf("page 1 = %v", names(page))
	}
	f.Offset = 2
	page, _ = s.List(ctx, f)
	if len(page) != 1 || page[0].Name != "Zoe" {
		t.Errorf("page 2 = %v", names(page))
	}

	n, _ := s.Count(ctx, ListFilter{RoleID: "r2", Status: domain.StatusBanned})
	if n != 1 {
		t.Errorf("role+status count = %d, want 1", n)
	}
}

func TestDelete(t *testing.T) {
	db := storagetest.OpenDB(t)
	seedRole(t, db, "r1")
	s := NewSQLiteStore(db)
	ctx := context.Background()
	s.Save(ctx, account("s1", "A", "a@example.com"))
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "s1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete = %v, want ErrNoRows", err)
	}
}

func names(as []domain.Account) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}
