package web

import (
	"errors"
	"net/http"

	"marketadmin/internal/adapters/http/middleware"
	"marketadmin/internal/adapters/markdown"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/application/projections"
	"marketadmin/internal/domain/audit"
	"marketadmin/internal/domain/setting"
)

// handleLogin handles GET (form) and POST (sign in) for /login.
// PRE: none
// POST: On success a session cookie is set and the browser goes to /admin
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := middleware.GetPrincipal(r.Context()); ok {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", http.StatusOK, map[string]any{"Title": "Sign in"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		email := r.FormValue("email")
		result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
			Email:    email,
			Password: r.FormValue("password"),
		}, orchestrators.LoginDeps{
			StaffStore: stores.StaffStore,
			Now:        now,
		})
		if err != nil {
			msg := orchestrators.ErrInvalidCredentials.Error()
			if errors.Is(err, orchestrators.ErrAccountLocked) || errors.Is(err, orchestrators.ErrAccountBanned) {
				msg = err.Error()
			} else if !errors.Is(err, orchestrators.ErrInvalidCredentials) {
				internalError(w, err)
				return
			}
			renderTemplate(w, r, "login.html", http.StatusUnauthorized, map[string]any{
				"Title": "Sign in",
				"Email": email,
				"Error": msg,
			})
			return
		}

		token, err := sessions.Create(result.AccountID, result.Email)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token, sessions.TTL())
		event := audit.NewEvent(result.AccountID, result.Email, "auth", audit.ActionLogin).
			WithIP(middleware.ClientIP(r))
		orchestrators.ExecuteRecordAudit(r.Context(), event, stores.AuditStore)
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.GetSessionToken(r.Context()); ok {
		sessions.Delete(token)
		recordAudit(r, "auth", audit.ActionLogout, "", "")
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleDashboard renders the counters and request timings (GET /admin).
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardDeps{
		ProductStore:   stores.ProductStore,
		CategoryStore:  stores.CategoryStore,
		FlashDealStore: stores.FlashDealStore,
		ReviewStore:    stores.ReviewStore,
		ContactStore:   stores.ContactStore,
		StaffStore:     stores.StaffStore,
		Collector:      perfCollector,
		Now:            now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "dashboard.html", http.StatusOK, map[string]any{
		"Title":     "Dashboard",
		"Nav":       "dashboard",
		"Dashboard": res,
	})
}

// handleMarkdownPreview renders posted markdown for the editor previews
// (POST /admin/preview).
func handleMarkdownPreview(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r, maxActionForm); err != nil {
		jsonFail(w, http.StatusBadRequest, "invalid form submission")
		return
	}
	html, err := markdown.Render(r.FormValue("markdown"))
	if err != nil {
		writeActionError(w, err)
		return
	}
	jsonOK(w, "", map[string]string{"html": html})
}

// publicSettings is the storefront view of business settings.
type publicSettings struct {
	SiteName       string `json:"site_name"`
	SiteMotto      string `json:"site_motto"`
	CurrencySymbol string `json:"currency_symbol"`
}

// handlePublicSettings handles GET /api/public/settings
func handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	values, err := stores.SettingStore.All(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	jsonOK(w, "", publicSettings{
		SiteName:       values.Get(setting.SiteName),
		SiteMotto:      values.Get(setting.SiteMotto),
		CurrencySymbol: values.Get(setting.CurrencySymbol),
	})
}

// handlePublicFeaturedDeal handles GET /api/public/flash-deals/featured
// POST: 404 when no featured deal is running or the storefront banner is switched off
func handlePublicFeaturedDeal(w http.ResponseWriter, r *http.Request) {
	values, err := stores.SettingStore.All(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	if !values.Bool(setting.FlashDealBannerVisible) {
		jsonFail(w, http.StatusNotFound, projections.ErrNoFeaturedDeal.Error())
		return
	}
	deal, err := projections.QueryGetFeaturedFlashDeal(r.Context(), projections.GetFeaturedFlashDealDeps{
		FlashDealStore: stores.FlashDealStore,
		Now:            now,
	})
	if errors.Is(err, projections.ErrNoFeaturedDeal) {
		jsonFail(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeActionError(w, err)
		return
	}
	jsonOK(w, "", deal)
}
