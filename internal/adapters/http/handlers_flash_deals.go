package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"marketadmin/internal/adapters/storage"
	flashDealStore "marketadmin/internal/adapters/storage/flashdeal"
	productStore "marketadmin/internal/adapters/storage/product"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/flashdeal"
	"marketadmin/internal/domain/product"
)

// maxDealProductChoices bounds the product picker of the flash deal form.
const maxDealProductChoices = 500

// dealRow is a flash deal with its state at render time.
type dealRow struct {
	flashdeal.FlashDeal
	State string
}

// handleFlashDeals lists flash deals (GET /admin/flash-deals).
func handleFlashDeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), flashDealStore.SortColumns, "status", "featured")

	filter := flashDealStore.ListFilter{
		Status:   params.Filter("status"),
		Featured: params.Filter("featured"),
	}
	filter.Search = params.Search
	total, err := stores.FlashDealStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	deals, err := stores.FlashDealStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	at := now()
	rows := make([]dealRow, len(deals))
	uploadIDs := make([]string, 0, len(deals))
	for i, d := range deals {
		rows[i] = dealRow{FlashDeal: d, State: d.State(at)}
		uploadIDs = append(uploadIDs, d.BannerUploadID)
	}

	data := listData(r, "Flash Deals", "flash_deals", "/admin/flash-deals/action", params, info)
	data["Deals"] = rows
	data["Images"] = uploadFiles(ctx, uploadIDs...)
	renderTemplate(w, r, "flash_deals.html", http.StatusOK, data)
}

// handleFlashDealForm handles GET (form) and POST (save) for
// /admin/flash-deals/new and /admin/flash-deals/{id}/edit.
// PRE: principal holds the flash_deals permission
// POST: On success the deal and its product lines are replaced in one transaction
func handleFlashDealForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	settings := loadSettings(r)
	defaultLang, langs := languages(settings)

	choices, err := stores.ProductStore.List(ctx, productStore.ListFilter{
		ListOptions: storage.ListOptions{Sort: "name", Dir: "asc", Limit: maxDealProductChoices},
	})
	if err != nil {
		internalError(w, err)
		return
	}
	data := map[string]any{
		"Title":       "Add Flash Deal",
		"Nav":         "flash_deals",
		"Choices":     choices,
		"Languages":   langs,
		"DefaultLang": defaultLang,
		"IsNew":       id == "",
	}
	if id != "" {
		data["Title"] = "Edit Flash Deal"
	}

	switch r.Method {
	case http.MethodGet:
		lang := r.URL.Query().Get("lang")
		if lang == "" {
			lang = defaultLang
		}
		data["Lang"] = lang
		start := now().Truncate(time.Hour)
		d := flashdeal.FlashDeal{
			StartDate:       start,
			EndDate:         start.Add(7 * 24 * time.Hour),
			Status:          true,
			BackgroundColor: "#e62e04",
			TextColor:       flashdeal.TextLight,
		}
		var lines []flashDealStore.LineRow
		if id != "" {
			d, err = stores.FlashDealStore.GetByID(ctx, id)
			if errors.Is(err, sql.ErrNoRows) {
				renderError(w, r, http.StatusNotFound, orchestrators.ErrFlashDealNotFound.Error())
				return
			}
			if err != nil {
				internalError(w, err)
				return
			}
			if lines, err = stores.FlashDealStore.Lines(ctx, id); err != nil {
				internalError(w, err)
				return
			}
		}
		data["Deal"] = d
		data["Lines"] = lines
		data["Images"] = uploadFiles(ctx, d.BannerUploadID)
		renderTemplate(w, r, "flash_deal_form.html", http.StatusOK, data)

	case http.MethodPost:
		if err := parseUploadForm(w, r); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		input := orchestrators.SaveFlashDealInput{
			ID:              id,
			Title:           r.FormValue("title"),
			Status:          formBool(r, "status"),
			Featured:        formBool(r, "featured"),
			BackgroundColor: r.FormValue("background_color"),
			TextColor:       r.FormValue("text_color"),
			Lang:            r.FormValue("lang"),
			DefaultLang:     defaultLang,
		}
		lines, linesErr := dealLines(r)
		input.Lines = lines
		startErr := formTimeInto(r, "start_date", &input.StartDate)
		endErr := formTimeInto(r, "end_date", &input.EndDate)

		data["Lang"] = input.Lang
		data["Deal"] = flashdeal.FlashDeal{
			ID: id, Title: input.Title, StartDate: input.StartDate, EndDate: input.EndDate,
			Status: input.Status, Featured: input.Featured,
			BackgroundColor: input.BackgroundColor, TextColor: input.TextColor,
		}
		data["Lines"] = lineRows(lines, choices)
		if err := firstErr(linesErr, startErr, endErr); err != nil {
			formFailed(w, r, "flash_deal_form.html", data, err)
			return
		}

		if input.BannerUploadID, err = saveImage(r, "banner"); err != nil {
			formFailed(w, r, "flash_deal_form.html", data, err)
			return
		}
		saved, err := orchestrators.ExecuteSaveFlashDeal(ctx, input, orchestrators.SaveFlashDealDeps{
			FlashDealStore: stores.FlashDealStore,
			ProductStore:   stores.ProductStore,
			Files:          files,
			GenerateID:     generateID,
			Now:            now,
		})
		if err != nil {
			discardUpload(ctx, input.BannerUploadID)
			formFailed(w, r, "flash_deal_form.html", data, err)
			return
		}
		afterSave(w, r, "flash_deals", id == "", saved.ID, saved.Title, "/admin/flash-deals")

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// dealLines reads the parallel product_id[], discount[], discount_type[]
// fields of the deal form. Rows without a product are skipped.
func dealLines(r *http.Request) ([]flashdeal.Line, error) {
	ids := r.Form["product_id[]"]
	discounts := r.Form["discount[]"]
	types := r.Form["discount_type[]"]
	var lines []flashdeal.Line
	for i, pid := range ids {
		pid = strings.TrimSpace(pid)
		if pid == "" {
			continue
		}
		l := flashdeal.Line{ProductID: pid, DiscountType: product.DiscountAmount}
		if i < len(discounts) && strings.TrimSpace(discounts[i]) != "" {
			f, err := parseDecimal("discount", strings.TrimSpace(discounts[i]))
			if err != nil {
				return lines, err
			}
			l.Discount = f
		}
		if i < len(types) && types[i] != "" {
			l.DiscountType = types[i]
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// lineRows decorates submitted lines with product names for redisplay.
func lineRows(lines []flashdeal.Line, choices []productStore.Row) []flashDealStore.LineRow {
	byID := make(map[string]productStore.Row, len(choices))
	for _, c := range choices {
		byID[c.ID] = c
	}
	out := make([]flashDealStore.LineRow, len(lines))
	for i, l := range lines {
		out[i] = flashDealStore.LineRow{Line: l, ProductName: byID[l.ProductID].Name, UnitPrice: byID[l.ProductID].UnitPrice}
	}
	return out
}

// formTimeInto parses a datetime-local field in server local time; empty
// leaves the zero time for validation to reject.
func formTimeInto(r *http.Request, key string, dst *time.Time) error {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateTimeLocal, v, time.Local)
	if err != nil {
		return badRequest(strings.ReplaceAll(key, "_", " ") + " must be a date and time")
	}
	*dst = t
	return nil
}

var flashDealActions = actionSet{page: "flash_deals", actions: map[string]action{
	"toggle_status": {run: func(r *http.Request, id string) (actionResult, error) {
		on, err := stores.FlashDealStore.ToggleStatus(r.Context(), id)
		if err != nil {
			return actionResult{}, err
		}
		return toggled("Flash deal", on, "enabled", "disabled"), nil
	}},
	// featuring one deal un-features the others
	"toggle_featured": {run: func(r *http.Request, id string) (actionResult, error) {
		on, err := stores.FlashDealStore.ToggleFeatured(r.Context(), id)
		if err != nil {
			return actionResult{}, err
		}
		return toggled("Flash deal", on, "featured", "no longer featured"), nil
	}},
	"delete": {run: func(r *http.Request, id string) (actionResult, error) {
		if err := orchestrators.DeleteWithUploads(r.Context(), id, stores.FlashDealStore.Delete, files); err != nil {
			return actionResult{}, err
		}
		return actionResult{Message: "Flash deal deleted"}, nil
	}},
}}
