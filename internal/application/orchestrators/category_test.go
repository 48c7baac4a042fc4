package orchestrators

import (
	"context"
	"errors"
	"testing"

	"marketadmin/internal/adapters/storage/category"
	"marketadmin/internal/adapters/storage/storagetest"
	domain "marketadmin/internal/domain/category"
)

func categoryDeps(t *testing.T) (SaveCategoryDeps, *category.SQLiteStore, *memFiles) {
	t.Helper()
	db := storagetest.OpenDB(t)
	for _, id := range []string{"img-1", "img-2"} {
		storagetest.Upload(t, db, id)
	}
	store := category.NewSQLiteStore(db)
	files := newMemFiles()
	return SaveCategoryDeps{CategoryStore: store, Files: files, GenerateID: seqIDs("cat"), Now: testNow}, store, files
}

func TestExecuteSaveCategory_TreeRules(t *testing.T) {
	deps, store, _ := categoryDeps(t)
	ctx := context.Background()
	save := func(in SaveCategoryInput) (domain.Category, error) {
		in.DefaultLang = "en"
		return ExecuteSaveCategory(ctx, in, deps)
	}

	home, err := save(SaveCategoryInput{Name: "Home & Garden"})
	if err != nil {
		t.Fatal(err)
	}
	if home.Slug != "home-garden" || home.Level != 0 {
		t.Errorf("root: %+v", home)
	}
	lamps, err := save(SaveCategoryInput{Name: "Lamps", ParentID: home.ID})
	if err != nil {
		t.Fatal(err)
	}
	desk, err := save(SaveCategoryInput{Name: "Desk Lamps", ParentID: lamps.ID})
	if err != nil {
		t.Fatal(err)
	}
	if desk.Level != 2 {
		t.Errorf("desk level = %d, want 2", desk.Level)
	}

	if _, err := save(SaveCategoryInput{ID: home.ID, Name: home.Name, ParentID: desk.ID}); !errors.Is(err, domain.ErrDescendantParent) {
		t.Errorf("cycle: expected ErrDescendantParent, got %v", err)
	}
	if _, err := save(SaveCategoryInput{Name: "Orphan", ParentID: "missing"}); !errors.Is(err, ErrParentNotFound) {
		t.Errorf("missing parent: expected ErrParentNotFound, got %v", err)
	}
	if _, err := save(SaveCategoryInput{Name: "Lamps"}); err != nil {
		t.Fatal(err)
	}
	if dup, _ := store.GetByID(ctx, "cat-5"); dup.Slug != "lamps-2" {
		t.Errorf("duplicate name slug = %q, want lamps-2", dup.Slug)
	}

	// moving Lamps to the root re-levels its subtree
	if _, err := save(SaveCategoryInput{ID: lamps.ID, Name: "Lamps"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByID(ctx, desk.ID)
	if got.Level != 1 {
		t.Errorf("desk level after move = %d, want 1", got.Level)
	}
}

func TestExecuteSaveCategory_TranslationKeepsBaseName(t *testing.T) {
	deps, store, files := categoryDeps(t)
	ctx := context.Background()

	c, err := ExecuteSaveCategory(ctx, SaveCategoryInput{Name: "Toys", BannerUploadID: "img-1", DefaultLang: "en"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ExecuteSaveCategory(ctx, SaveCategoryInput{ID: c.ID, Name: "Giocattoli", Lang: "it", DefaultLang: "en", BannerUploadID: "img-2"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByID(ctx, c.ID)
	if got.Name != "Toys" || got.Slug != "toys" || got.BannerUploadID != "img-2" {
		t.Errorf("base row changed by translation: %+v", got)
	}
	tr, err := store.Translation(ctx, c.ID, "it")
	if err != nil || tr.Name != "Giocattoli" {
		t.Errorf("translation = %+v, %v", tr, err)
	}
	if len(files.removed) != 1 || files.removed[0] != "all/img-1.png" {
		t.Errorf("replaced banner file not removed: %v", files.removed)
	}
}

func TestExecuteDeleteCategory(t *testing.T) {
	deps, _, files := categoryDeps(t)
	ctx := context.Background()
	root, _ := ExecuteSaveCategory(ctx, SaveCategoryInput{Name: "Root", IconUploadID: "img-1", DefaultLang: "en"}, deps)
	if _, err := ExecuteSaveCategory(ctx, SaveCategoryInput{Name: "Child", ParentID: root.ID, BannerUploadID: "img-2", DefaultLang: "en"}, deps); err != nil {
		t.Fatal(err)
	}

	del := DeleteCategoryDeps{CategoryStore: deps.CategoryStore, Files: files}
	deleted, err := ExecuteDeleteCategory(ctx, root.ID, del)
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted.CategoryIDs) != 2 || len(files.removed) != 2 {
		t.Errorf("deleted=%+v removed=%v", deleted, files.removed)
	}
	if _, err := ExecuteDeleteCategory(ctx, root.ID, del); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("second delete: expected ErrCategoryNotFound, got %v", err)
	}
}
