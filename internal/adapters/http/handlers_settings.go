package web

import (
	"errors"
	"net/http"
	"strings"

	auditStore "marketadmin/internal/adapters/storage/audit"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/audit"
	"marketadmin/internal/domain/setting"
)

// settingField is one row of the settings form.
type settingField struct {
	setting.Definition
	Current string
}

func settingFields(values setting.Values) []settingField {
	defs := setting.Definitions()
	fields := make([]settingField, len(defs))
	for i, d := range defs {
		fields[i] = settingField{Definition: d, Current: values.Get(d.Type)}
	}
	return fields
}

// handleSettings handles GET (form) and POST (save) for /admin/settings.
// PRE: principal holds the settings permission
// POST: On success every submitted value is stored; nothing is stored on a validation error
func handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := map[string]any{
		"Title":      "Business Settings",
		"Nav":        "settings",
		"ErrorField": "",
	}

	switch r.Method {
	case http.MethodGet:
		values, err := stores.SettingStore.All(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		data["Fields"] = settingFields(values)
		if r.URL.Query().Get("saved") == "1" {
			data["Notice"] = "Changes saved."
		}
		renderTemplate(w, r, "settings.html", http.StatusOK, data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		form := make(map[string]string, len(r.PostForm))
		for _, d := range setting.Definitions() {
			if _, ok := r.PostForm[d.Type]; ok {
				form[d.Type] = strings.TrimSpace(r.PostForm.Get(d.Type))
			}
		}
		saved, err := orchestrators.ExecuteSaveSettings(ctx, form, orchestrators.SettingsDeps{
			SettingStore: stores.SettingStore,
			Now:          now,
		})
		if err != nil {
			var se *orchestrators.SettingError
			if !errors.As(err, &se) {
				internalError(w, err)
				return
			}
			submitted := setting.Values(form)
			for _, d := range setting.Definitions() {
				if _, ok := form[d.Type]; !ok && d.Kind == setting.KindBool {
					submitted[d.Type] = "0"
				}
			}
			data["Fields"] = settingFields(submitted)
			data["Error"] = se.Error()
			data["ErrorField"] = se.Type
			renderTemplate(w, r, "settings.html", http.StatusUnprocessableEntity, data)
			return
		}
		changed := make([]string, 0, len(saved))
		for _, d := range setting.Definitions() {
			if _, ok := saved[d.Type]; ok {
				changed = append(changed, d.Type)
			}
		}
		recordAudit(r, "settings", audit.ActionUpdate, "", strings.Join(changed, ","))
		http.Redirect(w, r, "/admin/settings?saved=1", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// auditPages lists the page keys the audit section filter offers. The
// filter is named "section" because "page" is the pagination parameter.
var auditPages = []string{
	"auth", "products", "categories", "banners", "flash_deals", "reviews",
	"contacts", "seller_packages", "staff", "roles", "settings",
}

// handleAudit lists audit events (GET /admin/audit).
func handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseList(r, loadSettings(r), auditStore.SortColumns, "section", "action", "actor")

	filter := auditStore.Filter{
		Page:    params.Filter("section"),
		Action:  params.Filter("action"),
		ActorID: params.Filter("actor"),
	}
	filter.Search = params.Search
	total, err := stores.AuditStore.Count(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.ListOptions = params.Options(info)
	events, err := stores.AuditStore.List(ctx, filter)
	if err != nil {
		internalError(w, err)
		return
	}

	data := listData(r, "Audit Log", "audit", "", params, info)
	data["Events"] = events
	data["Pages"] = auditPages
	renderTemplate(w, r, "audit.html", http.StatusOK, data)
}
