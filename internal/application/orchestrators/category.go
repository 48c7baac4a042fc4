package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	categoryStore "marketadmin/internal/adapters/storage/category"
	"marketadmin/internal/domain/category"
	"marketadmin/internal/domain/slug"
	"marketadmin/internal/domain/upload"
)

// CategoryStoreForOrchestrator defines the store interface needed by category orchestrators.
type CategoryStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (category.Category, error)
	All(ctx context.Context) ([]category.Category, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Save(ctx context.Context, c category.Category, tr *category.Translation) ([]upload.Upload, error)
	Delete(ctx context.Context, id string) (categoryStore.Deleted, error)
}

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrParentNotFound   = errors.New("parent category does not exist")
)

// SaveCategoryInput carries the category form. An empty ID creates a new
// category; empty upload ids keep the current images.
type SaveCategoryInput struct {
	ID             string
	Name           string
	ParentID       string
	CommissionRate float64
	OrderLevel     int
	Featured       bool
	BannerUploadID string
	IconUploadID   string
	Lang           string // language of Name
	DefaultLang    string
}

// SaveCategoryDeps holds dependencies for SaveCategory.
type SaveCategoryDeps struct {
	CategoryStore CategoryStoreForOrchestrator
	Files         FileRemover
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSaveCategory creates or updates a category and its translation.
// PRE: none
// POST: Parent exists and is not the category or one of its descendants;
// level is parent.level+1 for the category and every descendant; slug is unique
func ExecuteSaveCategory(ctx context.Context, input SaveCategoryInput, deps SaveCategoryDeps) (category.Category, error) {
	all, err := deps.CategoryStore.All(ctx)
	if err != nil {
		return category.Category{}, err
	}
	byID := make(map[string]category.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	name := strings.TrimSpace(input.Name)
	lang := input.Lang
	if lang == "" {
		lang = input.DefaultLang
	}
	defaultLang := lang == input.DefaultLang

	var c category.Category
	if input.ID != "" {
		existing, ok := byID[input.ID]
		if !ok {
			return category.Category{}, ErrCategoryNotFound
		}
		c = existing
	} else {
		c = category.Category{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	}
	// a translation never renames the base row of an existing category
	if defaultLang || input.ID == "" {
		c.Name = name
	}
	c.ParentID = input.ParentID
	c.CommissionRate = input.CommissionRate
	c.OrderLevel = input.OrderLevel
	c.Featured = input.Featured
	if input.BannerUploadID != "" {
		c.BannerUploadID = input.BannerUploadID
	}
	if input.IconUploadID != "" {
		c.IconUploadID = input.IconUploadID
	}
	if name == "" {
		return category.Category{}, category.ErrEmptyName
	}
	if err := c.Validate(); err != nil {
		return category.Category{}, err
	}

	c.Level = 0
	if !c.IsRoot() {
		parent, ok := byID[c.ParentID]
		if !ok {
			return category.Category{}, ErrParentNotFound
		}
		if err := category.CheckParent(all, c.ID, c.ParentID); err != nil {
			return category.Category{}, err
		}
		c.Level = parent.Level + 1
	}

	if c.Slug == "" || (defaultLang && slug.Make(c.Name) != slug.Make(byID[c.ID].Name)) {
		c.Slug, err = slug.Unique(ctx, c.Name, func(ctx context.Context, s string) (bool, error) {
			return deps.CategoryStore.SlugExists(ctx, s, c.ID)
		})
		if err != nil {
			return category.Category{}, err
		}
	}

	tr := &category.Translation{CategoryID: c.ID, Lang: lang, Name: name}
	replaced, err := deps.CategoryStore.Save(ctx, c, tr)
	if err != nil {
		return category.Category{}, err
	}
	RemoveUploadFiles(deps.Files, replaced)
	return c, nil
}

// DeleteCategoryDeps holds dependencies for DeleteCategory.
type DeleteCategoryDeps struct {
	CategoryStore CategoryStoreForOrchestrator
	Files         FileRemover
}

// ExecuteDeleteCategory deletes a category with its whole subtree.
// POST: Products of deleted categories are uncategorised; upload files are removed after commit
func ExecuteDeleteCategory(ctx context.Context, id string, deps DeleteCategoryDeps) (categoryStore.Deleted, error) {
	deleted, err := deps.CategoryStore.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return categoryStore.Deleted{}, ErrCategoryNotFound
		}
		return categoryStore.Deleted{}, err
	}
	RemoveUploadFiles(deps.Files, deleted.Uploads)
	return deleted, nil
}
