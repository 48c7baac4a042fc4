package web

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	categoryStore "marketadmin/internal/adapters/storage/category"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/category"
)

// handleCategories lists categories (GET /admin/categories).
func handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), categoryStore.SortColumns, "parent", "featured")

	filter := categoryStore.ListFilter{
		ParentID: params.Filter("parent"),
		Featured: params.Filter("featured"),
	}
	filter.Search = params.Search
	total, err := stores.CategoryStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.CategoryStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	all, err := stores.CategoryStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	names := make(map[string]string, len(all))
	for _, c := range all {
		names[c.ID] = c.Name
	}
	var uploadIDs []string
	for _, c := range rows {
		uploadIDs = append(uploadIDs, c.BannerUploadID, c.IconUploadID)
	}

	data := listData(r, "Categories", "categories", "/admin/categories/action", params, info)
	data["Categories"] = rows
	data["ParentNames"] = names
	data["Tree"] = category.Flatten(all)
	data["Images"] = uploadFiles(ctx, uploadIDs...)
	renderTemplate(w, r, "categories.html", http.StatusOK, data)
}

// handleCategoryForm handles GET (form) and POST (save) for
// /admin/categories/new and /admin/categories/{id}/edit.
// PRE: principal holds the categories permission
// POST: On success the category and its translation are saved
func handleCategoryForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	settings := loadSettings(r)
	defaultLang, langs := languages(settings)

	all, err := stores.CategoryStore.All(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	data := map[string]any{
		"Title":       "Add Category",
		"Nav":         "categories",
		"Parents":     parentChoices(all, id),
		"Languages":   langs,
		"DefaultLang": defaultLang,
		"IsNew":       id == "",
	}
	if id != "" {
		data["Title"] = "Edit Category"
	}

	switch r.Method {
	case http.MethodGet:
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = defaultLang
		}
		data["Lang"] = lang
		var c category.Category
		if id != "" {
			c, err = stores.CategoryStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrCategoryNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
			if lang != defaultLang {
				tr, err := stores.CategoryStore.Translation(ctx, id, lang)
				switch {
				case err == nil:
					c.Name = tr.Name
				case !errors.Is(err, sql.ErrNoRows):
					internalError(w, err)
					return
				}
			}
		}
		data["Category"] = c
		data["Images"] = uploadFiles(ctx, c.BannerUploadID, c.IconUploadID)
		renderTemplate(w, r, "category_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := parseUploadForm(w, r); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input := orchestrators.SaveCategoryInput{
			ID:          id,
			Name:        r.FormValue("name"),
			ParentID:    r.FormValue("parent_id"),
			Featured:    formBool(r, "featured"),
			Lang:        r.FormValue("lang"),
			DefaultLang: defaultLang,
		}
		numErr := firstErr(
			formFloatInto(r, "commission_rate", &input.CommissionRate),
			formIntInto(r, "order_level", &input.OrderLevel),
		)
		data["Lang"] = input.Lang
		data["Category"] = category.Category{
			ID: id, Name: input.Name, ParentID: input.ParentID, Featured: input.Featured,
			CommissionRate: input.CommissionRate, OrderLevel: input.OrderLevel,
		}
		if numErr != nil {
			formFailed(w, r, "category_form.html", data, numErr)
			return
		}

		if input.BannerUploadID, err = saveImage(r, "banner"); err != nil {
			formFailed(w, r, "category_form.html", data, err)
			return
		}
		if input.IconUploadID, err = saveImage(r, "icon"); err != nil {
			discardUpload(ctx, input.BannerUploadID)
			formFailed(w, r, "category_form.html", data, err)
			return
		}

		saved, err := orchestrators.ExecuteSaveCategory(ctx, input, orchestrators.SaveCategoryDeps{
			CategoryStore: stores.CategoryStore,
			Files:         files,
			GenerateID:    generateID,
			Now:           now,
		})
		if err != nil {
			discardUpload(ctx, input.BannerUploadID)
			discardUpload(ctx, input.IconUploadID)
			formFailed(w, r, "category_form.html", data, err)
			return
		}
		afterSave(w, r, "categories", id == "", saved.ID, saved.Name, "/admin/categories")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// parentChoices lists the categories id may be moved under: everything
// except the category itself and its subtree.
func parentChoices(all []category.Category, id string) []category.Node {
	nodes := category.Flatten(all)
	if id == "" {
		return nodes
	}
	excluded := map[string]bool{id: true}
	for _, d := range category.Descendants(all, id) {
		excluded[d] = true
	}
	out := nodes[:0]
	for _, n := range nodes {
		if !excluded[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

var categoryActions = actionSet{page: "categories", actions: map[string]action{
	"toggle_featured": {run: func(r *http.Request, id string) (actionResult, error) {
		on, err := stores.CategoryStore.ToggleFeatured(r.Context(), id)
		if err != nil {
			return actionResult{}, err
		}
		return toggled("Category", on, "featured", "no longer featured"), nil
	}},
	// deletes the whole subtree; its products become uncategorised
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		deleted, err := orchestrators.ExecuteDeleteCategory(r.Context(), id, orchestrators.DeleteCategoryDeps{
			CategoryStore: stores.CategoryStore,
			Files:         files,
		})
		if err != nil {
			return actionResult{}, err
		}
		msg := fmt.Sprintf("%d categor%s deleted", len(deleted.CategoryIDs), plural(len(deleted.CategoryIDs), "y", "ies"))
		if deleted.OrphanedProducts > 0 {
			msg += fmt.Sprintf(", %d product(s) are now uncategorised", deleted.OrphanedProducts)
		}
		return actionResult{
			Message: msg,
			Data: map[string]any{
				"deleted_ids":       deleted.CategoryIDs,
				"orphaned_products": deleted.OrphanedProducts,
			},
			Detail: msg,
		}, nil
	}},
}}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
