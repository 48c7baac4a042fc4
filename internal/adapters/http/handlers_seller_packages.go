package web

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sellerPackageStore "marketadmin/internal/adapters/storage/sellerpackage"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/sellerpackage"
)

// handleSellerPackages lists seller packages (GET /admin/seller-packages).
func handleSellerPackages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), sellerPackageStore.SortColumns)

	var filter sellerPackageStore.ListFilter
	filter.Search = params.Search
	total, err := stores.SellerPackageStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	rows, err := stores.SellerPackageStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	uploadIDs := make([]string, 0, len(rows))
	for _, p := range rows {
		uploadIDs = append(uploadIDs, p.LogoUploadID)
	}

	data := listData(r, "Seller Packages", "seller_packages", "/admin/seller-packages/action", params, info)
	data["Packages"] = rows
	data["Images"] = uploadFiles(ctx, uploadIDs...)
	renderTemplate(w, r, "seller_packages.html", http.StatusOK, data)
}

// handleSellerPackageForm handles GET (form) and POST (save) for
// /admin/seller-packages/new and /admin/seller-packages/{id}/edit.
func handleSellerPackageForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	defaultLang, langs := languages(loadSettings(r))
	data := map[string]any{
		"Title":       "Add Seller Package",
		"Nav":         "seller_packages",
		"Languages":   langs,
		"DefaultLang": defaultLang,
		"IsNew":       id == "",
	}
	if id != "" {
		data["Title"] = "Edit Seller Package"
	}

	switch r.Method {
	case http.MethodGet:
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = defaultLang
		}
		data["Lang"] = lang
		p := sellerpackage.Package{DurationDays: 30}
		if id != "" {
			var err error
			p, err = stores.SellerPackageStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrSellerPackageNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
			if lang != defaultLang {
				tr, err := stores.SellerPackageStore.Translation(ctx, id, lang)
				switch {
				case err == nil:
					p.Name = tr.Name
				case !errors.Is(err, sql.ErrNoRows):
					internalError(w, err)
					return
				}
			}
		}
		data["Package"] = p
		data["Images"] = uploadFiles(ctx, p.LogoUploadID)
		renderTemplate(w, r, "seller_package_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := parseUploadForm(w, r); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input := orchestrators.SaveSellerPackageInput{
			ID:          id,
			Name:        r.FormValue("name"),
			Lang:        r.FormValue("lang"),
			DefaultLang: defaultLang,
		}
		numErr := firstErr(
			formFloatInto(r, "amount", &input.Amount),
			formIntInto(r, "product_upload_limit", &input.ProductUploadLimit),
			formIntInto(r, "duration_days", &input.DurationDays),
		)
		data["Lang"] = input.Lang
		data["Package"] = sellerpackage.Package{
			ID: id, Name: input.Name, Amount: input.Amount,
			ProductUploadLimit: input.ProductUploadLimit, DurationDays: input.DurationDays,
		}
		if numErr != nil {
			formFailed(w, r, "seller_package_form.html", data, numErr)
			return
		}

		var err error
		if input.LogoUploadID, err = saveImage(r, "logo"); err != nil {
			formFailed(w, r, "seller_package_form.html", data, err)
			return
		}
		saved, err := orchestrators.ExecuteSaveSellerPackage(ctx, input, orchestrators.SaveSellerPackageDeps{
			SellerPackageStore: stores.SellerPackageStore,
			Files:              files,
			GenerateID:         generateID,
			Now:                now,
		})
		if err != nil {
			discardUpload(ctx, input.LogoUploadID)
			formFailed(w, r, "seller_package_form.html", data, err)
			return
		}
		afterSave(w, r, "seller_packages", id == "", saved.ID, saved.Name, "/admin/seller-packages")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

var sellerPackageActions = actionSet{page: "seller_packages", actions: map[string]action{
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := orchestrators.DeleteWithUploads(r.Context(), id, stores.SellerPackageStore.Delete, files); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Seller package deleted"}, nil
	}},
}}
