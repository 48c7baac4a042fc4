package review

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/adapters/storage/storagetest"
	domain "marketadmin/internal/domain/review"
)

func productRating(t *testing.T, db *sql.DB, id string) (float64, int) {
	t.Helper()
	var rating float64
	var n int
	if err := db.QueryRow("SELECT rating, num_of_reviews FROM product WHERE id = ?", id).Scan(&rating, &n); err != nil {
		t.Fatal(err)
	}
	return rating, n
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	storagetest.Product(t, db, "p1", "Kettle", 30)
	storagetest.Product(t, db, "p2", "Toaster", 45)
	for _, r := range []domain.Review{
		{ID: "r1", ProductID: "p1", CustomerName: "Ann", Rating: 5, Comment: "Boils fast", Status: domain.StatusPublished},
		{ID: "r2", ProductID: "p1", CustomerName: "Ben", Rating: 2, Comment: "Loud", Status: domain.StatusPublished},
		{ID: "r3", ProductID: "p2", CustomerName: "Cat", Rating: 4, Comment: "Crispy", Status: domain.StatusHidden},
	} {
		storagetest.Exec(t, db, `INSERT INTO review (id, product_id, customer_name, rating, comment, status, viewed, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
			r.ID, r.ProductID, r.CustomerName, r.Rating, r.Comment, r.Status, storage.FormatTime(storagetest.Now))
	}
	for _, id := range []string{"p1", "p2"} {
		if err := recomputeRating(context.Background(), db, id); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRatingFollowsPublishedReviews(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	seed(t, db)

	if r, n := productRating(t, db, "p1"); r != 3.5 || n != 2 {
		t.Errorf("p1 rating = %v (%d), want 3.5 (2)", r, n)
	}
	if r, n := productRating(t, db, "p2"); r != 0 || n != 0 {
		t.Errorf("p2 rating = %v (%d), want 0 (0) with only hidden reviews", r, n)
	}

	status, err := s.ToggleStatus(ctx, "r2")
	if err != nil || status != domain.StatusHidden {
		t.Fatalf("ToggleStatus = %q, %v", status, err)
	}
	if r, n := productRating(t, db, "p1"); r != 5 || n != 1 {
		t.Errorf("after hide p1 = %v (%d), want 5 (1)", r, n)
	}

	if err := s.Delete(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	if r, n := productRating(t, db, "p1"); r != 0 || n != 0 {
		t.Errorf("after delete p1 = %v (%d), want 0 (0)", r, n)
	}
	if err := s.Delete(ctx, "r1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("delete missing = %v", err)
	}
}

func TestListAndMarkViewed(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	seed(t, db)

	list, err := s.List(ctx, ListFilter{ListOptions: storage.ListOptions{Search: "toast"}})
	if err != nil || len(list) != 1 || list[0].ID != "r3" || list[0].ProductName != "Toaster" {
		t.Errorf("product-name search = %+v, %v", list, err)
	}
	if n, _ := s.Count(ctx, ListFilter{Rating: "5"}); n != 1 {
		t.Errorf("5-star count = %d", n)
	}
	if n, _ := s.Count(ctx, ListFilter{Viewed: "0"}); n != 3 {
		t.Errorf("unviewed = %d, want 3", n)
	}
	if n, _ := s.MarkAllViewed(ctx); n != 3 {
		t.Errorf("MarkAllViewed = %d, want 3", n)
	}
	if n, _ := s.Count(ctx, ListFilter{Viewed: "0"}); n != 0 {
		t.Errorf("unviewed after mark = %d", n)
	}
}
