package sellerpackage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"marketadmin/internal/adapters/storage"
	"marketadmin/internal/adapters/storage/storagetest"
	domain "marketadmin/internal/domain/sellerpackage"
)

func TestPackageLifecycle(t *testing.T) {
	db := storagetest.OpenDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()
	storagetest.Upload(t, db, "logo")

	gold := domain.Package{ID: "gold", Name: "Gold", Amount: 49, ProductUploadLimit: 500, DurationDays: 30, LogoUploadID: "logo", CreatedAt: storagetest.Now}
	free := domain.Package{ID: "free", Name: "Starter", DurationDays: 7, CreatedAt: storagetest.Now}
	if _, err := s.Save(ctx, gold, &domain.Translation{Lang: "it", Name: "Oro"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, free, nil); err != nil {
		t.Fatal(err)
	}

	list, _ := s.List(ctx, ListFilter{})
	if len(list) != 2 || list[0].ID != "free" {
		t.Errorf("default order by amount = %+v", list)
	}
	list, _ = s.List(ctx, ListFilter{storage.ListOptions{Sort: "product_upload_limit", Dir: "desc"}})
	if list[0].ID != "gold" || list[0].LogoUploadID != "logo" {
		t.Errorf("sorted = %+v", list)
	}
	tr, err := s.Translation(ctx, "gold", "it")
	if err != nil || tr.Name != "Oro" {
		t.Errorf("Translation = %+v, %v", tr, err)
	}

	removed, err := s.Delete(ctx, "gold")
	if err != nil || len(removed) != 1 || removed[0].ID != "logo" {
		t.Fatalf("Delete = %+v, %v", removed, err)
	}
	if n := storagetest.Count(t, db, "seller_package_translation", ""); n != 0 {
		t.Errorf("translations left = %d", n)
	}
	if _, err := s.Delete(ctx, "gold"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("delete missing = %v", err)
	}
}
