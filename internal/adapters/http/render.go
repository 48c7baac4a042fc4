package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"

	"marketadmin/internal/adapters/markdown"
	"marketadmin/internal/application/listutil"
	"marketadmin/internal/domain/banner"
	"marketadmin/internal/domain/role"
	"marketadmin/internal/domain/setting"
)

//go:embed templates/*.html
var templateFS embed.FS

// navItem is one sidebar link, shown when the principal holds Permission.
type navItem struct {
	Key        string
	Label      string
	URL        string
	Permission string
}

var navItems = []navItem{
	{"dashboard", "Dashboard", "/admin", role.PermDashboard},
	{"products", "Products", "/admin/products", role.PermProducts},
	{"seller_products", "Seller Products", "/admin/products/seller", role.PermProducts},
	{"categories", "Categories", "/admin/categories", role.PermCategories},
	{"banners", "Banners", "/admin/banners", role.PermBanners},
	{"flash_deals", "Flash Deals", "/admin/flash-deals", role.PermFlashDeals},
	{"reviews", "Reviews", "/admin/reviews", role.PermReviews},
	{"contacts", "Contacts", "/admin/contacts", role.PermContacts},
	{"seller_packages", "Seller Packages", "/admin/seller-packages", role.PermSellerPackages},
	{"staff", "Staff", "/admin/staff", role.PermStaff},
	{"roles", "Roles", "/admin/roles", role.PermStaff},
	{"settings", "Business Settings", "/admin/settings", role.PermSettings},
	{"audit", "Audit Log", "/admin/audit", role.PermAudit},
}

// baseFuncs are bound at parse time; request-scoped ones are rebound in renderTemplate.
var baseFuncs = template.FuncMap{
	"csrfToken":    func() string { return "" },
	"siteName":     func() string { return "" },
	"currentEmail": func() string { return "" },
	"currentName":  func() string { return "" },
	"can":          func(string) bool { return false },
	"nav":          func() []navItem { return nil },
	"formatMoney":  func(float64) string { return "" },

	"renderMarkdown": func(md string) template.HTML {
		html, err := markdown.Render(md)
		if err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(html)
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
	"inputTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format(dateTimeLocal)
	},
	"dict": func(pairs ...any) map[string]any {
		m := make(map[string]any, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			if k, ok := pairs[i].(string); ok {
				m[k] = pairs[i+1]
			}
		}
		return m
	},
	"add":   func(a, b int) int { return a + b },
	"round": func(f float64) int { return int(math.Round(f)) },
	"sub":   func(a, b int) int { return a - b },
	"sortHeaderArgs": func(p listutil.Params, col, label string) map[string]any {
		return map[string]any{
			"Label":  label,
			"Active": p.Sort == col,
			"Dir":    p.Dir,
			"Query":  template.URL(p.Query("sort", col, "dir", p.NextDir(col), "page", "1")),
		}
	},
	"paginationQuery": func(p listutil.Params, page int) template.URL {
		return template.URL(p.Query("page", strconv.Itoa(page)))
	},
	"perPageQuery": func(p listutil.Params, perPage int) template.URL {
		return template.URL(p.Query("per_page", strconv.Itoa(perPage), "page", "1"))
	},
	"perPageOptions": func() []int { return listutil.PerPageOptions },
	"permLabel":      func(key string) string { return role.Labels[key] },
	"allPermissions": func() []string { return role.AllPermissions },
	"hasPerm":        func(r role.Role, key string) bool { return r.Has(key) },
	"positionLabel":  func(pos int) string { return banner.PositionLabels[pos] },
	"positions": func() []int {
		return []int{banner.PositionHomeTop, banner.PositionHomeMiddle, banner.PositionHomeBottom}
	},
	"uploadURL": func(fileName string) string {
		if fileName == "" {
			return ""
		}
		return "/uploads/" + fileName
	},
	"stars": func(n int) string {
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	},
	"indent": func(depth int) string { return strings.Repeat("\u00a0\u00a0\u00a0", depth) },
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "…"
	},
}

// dateTimeLocal is the layout of <input type="datetime-local">.
const dateTimeLocal = "2006-01-02T15:04"

var pages = map[string]*template.Template{}

// init parses layout + partials with every page template once.
func init() {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" || base == "partials.html" {
			continue
		}
		root := "layout.html"
		files := []string{"templates/layout.html", "templates/partials.html", name}
		if base == "login.html" || base == "error.html" {
			root = base
			files = []string{name}
		}
		pages[base] = template.Must(template.New(root).Funcs(baseFuncs).ParseFS(templateFS, files...))
	}
}

// renderTemplate executes a page with the request-scoped template funcs.
// The page is buffered so a template error never leaves half a page behind.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, status int, data map[string]any) {
	tpl, ok := pages[templateName]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", templateName))
		return
	}
	tpl, err := tpl.Clone()
	if err != nil {
		internalError(w, err)
		return
	}

	p := currentPrincipal(r)
	settings := loadSettings(r)
	tpl.Funcs(template.FuncMap{
		"csrfToken":    func() string { return csrf.Token(r) },
		"siteName":     func() string { return settings.Get(setting.SiteName) },
		"currentEmail": func() string { return p.Email },
		"currentName":  func() string { return p.Name },
		"can":          p.Can,
		"nav": func() []navItem {
			var items []navItem
			for _, item := range navItems {
				if p.Can(item.Permission) {
					items = append(items, item)
				}
			}
			return items
		},
		"formatMoney": func(f float64) string {
			return settings.Get(setting.CurrencySymbol) + strconv.FormatFloat(f, 'f', 2, 64)
		},
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// loadSettings reads business settings for the page chrome; defaults stand in
// when the store fails.
func loadSettings(r *http.Request) setting.Values {
	values, err := stores.SettingStore.All(r.Context())
	if err != nil {
		slog.Warn("settings_unavailable", "error", err)
		return setting.Values{}
	}
	return values
}

// renderError shows a full-page error.
func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	renderTemplate(w, r, "error.html", status, map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}
