package web

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	bannerStore "marketadmin/internal/adapters/storage/banner"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/banner"
)

// handleBanners lists banners (GET /admin/banners).
func handleBanners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), bannerStore.SortColumns, "position", "published")

	filter := bannerStore.ListFilter{
		Position:  params.Filter("position"),
		Published: params.Filter("published"),
	}
	filter.Search = params.Search
	total, err := stores.BannerStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.BannerStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	uploadIDs := make([]string, 0, len(rows))
	for _, b := range rows {
		uploadIDs = append(uploadIDs, b.UploadID)
	}

	data := listData(r, "Banners", "banners", "/admin/banners/action", params, info)
	data["Banners"] = rows
	data["Images"] = uploadFiles(ctx, uploadIDs...)
	renderTemplate(w, r, "banners.html", http.StatusOK, data)
}

// handleBannerForm handles GET (form) and POST (save) for
// /admin/banners/new and /admin/banners/{id}/edit.
// PRE: principal holds the banners permission
// POST: On success the banner is saved; a replaced image is deleted
func handleBannerForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	data := map[string]any{
		"Title": "Add Banner",
		"Nav":   "banners",
		"IsNew": id == "",
	}
	if id != "" {
		data["Title"] = "Edit Banner"
	}

	switch r.Method {
	case http.MethodGet:
		b := banner.Banner{Position: banner.PositionHomeTop, Published: true}
		if id != "" {
			var err error
			b, err = stores.BannerStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrBannerNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
		}
		data["Banner"] = b
		data["Images"] = uploadFiles(ctx, b.UploadID)
		renderTemplate(w, r, "banner_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := parseUploadForm(w, r); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input := orchestrators.SaveBannerInput{
			ID:        id,
			Title:     r.FormValue("title"),
			URL:       r.FormValue("url"),
			Published: formBool(r, "published"),
		}
		numErr := formIntInto(r, "position", &input.Position)
		data["Banner"] = banner.Banner{ID: id, Title: input.Title, URL: input.URL, Position: input.Position, Published: input.Published}
		if numErr != nil {
			formFailed(w, r, "banner_form.html", data, numErr)
			return
		}

		var err error
		if input.UploadID, err = saveImage(r, "image"); err != nil {
			formFailed(w, r, "banner_form.html", data, err)
			return
		}
		saved, err := orchestrators.ExecuteSaveBanner(ctx, input, orchestrators.SaveBannerDeps{
			BannerStore: stores.BannerStore,
			Files:       files,
			GenerateID:  generateID,
			Now:         now,
		})
		if err != nil {
			discardUpload(ctx, input.UploadID)
			formFailed(w, r, "banner_form.html", data, err)
			return
		}
		afterSave(w, r, "banners", id == "", saved.ID, saved.Title, "/admin/banners")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var bannerActions = actionSet{page: "banners", actions: map[string]action{
	"toggle_published": {run: func(r *http.Request, id string) (actionResult, error) {
		on, err := stores.BannerStore.TogglePublished(r.Context(), id)
		if err != nil {
			return actionResult{}, err
		}
		return toggled("Banner", on, "published", "unpublished"), nil
	}},
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := orchestrators.DeleteWithUploads(r.Context(), id, stores.BannerStore.Delete, files); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Banner deleted"}, nil
	}},
}}
