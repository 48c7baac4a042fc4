package product

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/adapters/storage/storagetest"
	domain "marketadmin/internal/domain/product"
)

func newProduct(id, name string, price float64) domain.Product {
	return domain.Product{
		ID: id, Name: name, Slug: id, AddedBy: domain.AddedByAdmin, UnitPrice: price,
		DiscountType: domain.DiscountAmount, Approved: true,
		CreatedAt: storagetest.Now, UpdatedAt: storagetest.Now,
	}
}

func TestSave_StockAndTranslation(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	p := newProduct("p1", "Desk Lamp", 39.5)
	p.Description = "**Warm** light"
	if err := s.Save(ctx, p, domain.Stock{SKU: "LAMP-1", Qty: 7}, &domain.Translation{Lang: "de", Name: "Tischlampe"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	storagetest.Exec(t, db, "INSERT INTO product_stock (id, product_id, variant, sku, qty) VALUES ('v2', 'p1', 'blue', 'LAMP-B', 3)")

	p.Name = "Desk Lamp XL"
	if err := s.Save(ctx, p, domain.Stock{SKU: "LAMP-1", Qty: 10}, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Desk Lamp XL" || got.CurrentStock != 13 || got.CategoryID != "" || !got.CreatedAt.Equal(storagetest.Now) {
		t.Errorf("got %+v", got)
	}
	stocks, _ := s.Stocks(ctx, "p1")
	if len(stocks) != 2 || domain.TotalStock(stocks) != 13 {
		t.Errorf("stocks = %+v", stocks)
	}
	tr, err := s.Translation(ctx, "p1", "de")
	if err != nil || tr.Name != "Tischlampe" {
		t.Errorf("Translation = %+v, %v", tr, err)
	}
}

func TestList_FiltersAndSkuSearch(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	storagetest.Exec(t, db, "INSERT INTO category (id, name, slug, created_at) VALUES ('c1', 'Lighting', 'lighting', 'x')")

	lamp := newProduct("p1", "Lamp", 10)
	lamp.CategoryID = "c1"
	lamp.Published = true
	seller := newProduct("p2", "Chair", 50)
	seller.AddedBy = domain.AddedBySeller
	seller.SellerID = "shop-9"
	seller.Approved = false
	for _, p := range []domain.Product{lamp, seller} {
		if err := s.Save(ctx, p, domain.Stock{SKU: "SKU-" + p.ID}, nil); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := s.List(ctx, ListFilter{ListOptions: storage.ListOptions{Search: "sku-p2"}})
	if err != nil || len(rows) != 1 || rows[0].ID != "p2" {
		t.Fatalf("sku search = %+v, %v", rows, err)
	}
	rows, _ = s.List(ctx, ListFilter{CategoryID: "c1"})
	if len(rows) != 1 || rows[0].CategoryName != "Lighting" {
		t.Errorf("category filter = %+v", rows)
	}
	if n, _ := s.Count(ctx, ListFilter{CategoryID: NoCategory}); n != 1 {
		t.Errorf("uncategorised = %d, want 1", n)
	}
	if n, _ := s.Count(ctx, ListFilter{AddedBy: domain.AddedBySeller, Approved: "0"}); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
	rows, _ = s.List(ctx, ListFilter{ListOptions: storage.ListOptions{Sort: "unit_price", Dir: "desc", Limit: 1}})
	if len(rows) != 1 || rows[0].ID != "p2" {
		t.Errorf("sorted page = %+v", rows)
	}
}

func TestToggleAndApproval(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	p := newProduct("p1", "Lamp", 10)
	p.Published = true
	s.Save(ctx, p, domain.Stock{}, nil)

	on, err := s.Toggle(ctx, "p1", FieldTodaysDeal, storagetest.Now)
	if err != nil || !on {
		t.Fatalf("Toggle = %v, %v", on, err)
	}
	if _, err := s.Toggle(ctx, "p1", "approved; --", storagetest.Now); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := s.Toggle(ctx, "ghost", FieldPublished, storagetest.Now); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing product err = %v", err)
	}

	if err := s.SetApproval(ctx, "p1", false, storagetest.Now); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetByID(ctx, "p1")
	if got.Approved || got.Published {
		t.Errorf("reject should unapprove and unpublish: %+v", got)
	}
	if err := s.SetApproval(ctx, "p1", true, storagetest.Now); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetByID(ctx, "p1")
	if !got.Approved || got.Published {
		t.Errorf("approve should not publish: %+v", got)
	}
}

func TestDelete_Cascades(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		s.Save(ctx, newProduct(id, id, 10), domain.Stock{Qty: 1}, &domain.Translation{Lang: "fr", Name: id})
	}
	storagetest.Exec(t, db, "INSERT INTO flash_deal (id, title, slug, start_date, end_date, created_at) VALUES ('d1', 'D', 'd', 'x', 'y', 'z')")
	storagetest.Exec(t, db, "INSERT INTO flash_deal_product (id, flash_deal_id, product_id) VALUES ('l1', 'd1', 'p1')")
	storagetest.Exec(t, db, "INSERT INTO review (id, product_id, customer_name, rating, created_at) VALUES ('r1', 'p2', 'Ann', 4, 'x')")

	n, err := s.Delete(ctx, "p1", "p2", "ghost")
	if err != nil || n != 2 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	for table, want := range map[string]int{
		"product": 1, "product_stock": 1, "product_translation": 1, "flash_deal_product": 0, "review": 0,
	} {
		if got := storagetest.Count(t, db, table, ""); got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}
}

func TestPrices(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	s.Save(ctx, newProduct("p1", "A", 12.5), domain.Stock{}, nil)
	prices, err := s.Prices(ctx, []string{"p1", "missing"})
	if err != nil || len(prices) != 1 || prices["p1"] != 12.5 {
		t.Errorf("Prices = %v, %v", prices, err)
	}
}
