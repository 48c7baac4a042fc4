package projections

import (
	"context"
	"testing"
	"time"

	"marketadmin/internal/adapters/http/perf"
	"marketadmin/internal/adapters/storage/category"
	"marketadmin/internal/adapters/storage/contact"
	"marketadmin/internal/adapters/storage/flashdeal"
	"marketadmin/internal/adapters/storage/product"
	"marketadmin/internal/adapters/storage/review"
	"marketadmin/internal/adapters/storage/staff"
	"marketadmin/internal/adapters/storage/storagetest"
	contactdomain "marketadmin/internal/domain/contact"
)

func TestQueryGetDashboard(t *testing.T) {
	db := storagetest.OpenDB(t)
	now := storagetest.Now
	storagetest.Product(t, db, "p1", "Lamp", 40)
	storagetest.Product(t, db, "p2", "Rug", 90)
	storagetest.Exec(t, db, "UPDATE product SET published = 1 WHERE id = 'p1'")
	storagetest.Exec(t, db, "UPDATE product SET added_by = 'seller', seller_id = 's9', approved = 0 WHERE id = 'p2'")
	storagetest.Exec(t, db, `INSERT INTO review (id, product_id, customer_name, rating, comment, status, viewed, created_at)
		VALUES ('r1', 'p1', 'Ana', 4, 'ok', 'published', 0, ?)`, now.Format(time.RFC3339))

	contacts := contact.NewSQLiteStore(db)
	for i := range 7 {
		c := contactdomain.Contact{ID: string(rune('a' + i)), Name: "N", Email: "n@example.com", Content: "hi", CreatedAt: now.Add(time.Duration(i) * time.Minute)}
		if err := contacts.Save(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}
	if err := contacts.SaveReply(context.Background(), "a", "done", now); err != nil {
		t.Fatal(err)
	}

	collector := perf.NewCollector(16)
	collector.Record(perf.Entry{Kind: perf.KindRequest, Path: "GET /admin", StatusCode: 200, DurationMs: 12, Timestamp: now})

	res, err := QueryGetDashboard(context.Background(), GetDashboardDeps{
		ProductStore:   product.NewSQLiteStore(db),
		CategoryStore:  category.NewSQLiteStore(db),
		FlashDealStore: flashdeal.NewSQLiteStore(db),
		ReviewStore:    review.NewSQLiteStore(db),
		ContactStore:   contacts,
		StaffStore:     staff.NewSQLiteStore(db),
		Collector:      collector,
		Now:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatal(err)
	}

	counts := map[string][2]int{
		"products":   {res.Products, 2},
		"published":  {res.PublishedProducts, 1},
		"pending":    {res.PendingApproval, 1},
		"reviews":    {res.UnreadReviews, 1},
		"unanswered": {res.UnansweredContacts, 6},
		"latest":     {len(res.LatestContacts), LatestContacts},
		"running":    {res.RunningFlashDeals, 0},
		"perf_reqs":  {res.Perf.TotalRequests, 1},
		"staff":      {res.Staff, 0},
		"categories": {res.Categories, 0},
	}
	for name, c := range counts {
		if c[0] != c[1] {
			t.Errorf("%s = %d, want %d", name, c[0], c[1])
		}
	}
	if res.Perf.Recorded != 1 {
		t.Errorf("perf recorded = %d, want 1", res.Perf.Recorded)
	}
	if res.LatestContacts[0].ID != "g" {
		t.Errorf("latest contact = %s, want newest first", res.LatestContacts[0].ID)
	}
}
