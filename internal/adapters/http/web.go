package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"marketadmin/internal/adapters/email"
	"marketadmin/internal/adapters/http/middleware"
	"marketadmin/internal/adapters/http/perf"
	auditStore "marketadmin/internal/adapters/storage/audit"
	bannerStore "marketadmin/internal/adapters/storage/banner"
	categoryStore "marketadmin/internal/adapters/storage/category"
	contactStore "marketadmin/internal/adapters/storage/contact"
	flashDealStore "marketadmin/internal/adapters/storage/flashdeal"
	productStore "marketadmin/internal/adapters/storage/product"
	reviewStore "marketadmin/internal/adapters/storage/review"
	roleStore "marketadmin/internal/adapters/storage/role"
	sellerPackageStore "marketadmin/internal/adapters/storage/sellerpackage"
	settingStore "marketadmin/internal/adapters/storage/setting"
	staffStore "marketadmin/internal/adapters/storage/staff"
	uploadStore "marketadmin/internal/adapters/storage/upload"
	"marketadmin/internal/adapters/uploads"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/config"
	"marketadmin/internal/domain/role"
)

// Stores holds all storage dependencies.
type Stores struct {
	StaffStore         staffStore.Store
	RoleStore          roleStore.Store
	SettingStore       settingStore.Store
	UploadStore        uploadStore.Store
	CategoryStore      categoryStore.Store
	ProductStore       productStore.Store
	BannerStore        bannerStore.Store
	FlashDealStore     flashDealStore.Store
	ReviewStore        reviewStore.Store
	ContactStore       contactStore.Store
	SellerPackageStore sellerPackageStore.Store
	AuditStore         auditStore.Store
}

// Global stores instance (set by NewRouter)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewRouter)
var perfCollector *perf.Collector

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Upload file storage (set by NewRouter)
var files *uploads.FileStore

// Runtime configuration (set by NewRouter)
var appConfig *config.Config

// Clock and id source; tests replace them.
var (
	now        = time.Now
	generateID = uuid.NewString
)

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender) {
	emailSender = sender
}

// Sessions exposes the session store so the CLI can purge it on a timer.
func Sessions() *middleware.SessionStore {
	return sessions
}

// loadPrincipal resolves a session's account and role on every request.
func loadPrincipal(ctx context.Context, accountID string) (orchestrators.Principal, error) {
	return orchestrators.ExecuteLoadPrincipal(ctx, accountID, orchestrators.PrincipalDeps{
		StaffStore: stores.StaffStore,
		RoleStore:  stores.RoleStore,
	})
}

// NewRouter wires HTTP handlers for the admin back-office.
// PRE: cfg has a CSRF key; s, fs are non-nil
// POST: Returns the root handler; package globals are set
func NewRouter(cfg *config.Config, s *Stores, collector *perf.Collector, fs *uploads.FileStore) http.Handler {
	stores = s
	perfCollector = collector
	files = fs
	appConfig = cfg
	sessions = middleware.NewSessionStore(cfg.SessionTTL)
	middleware.SecureCookies = cfg.IsProduction()
	if emailSender == nil {
		emailSender = email.NewNoopSender()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Second)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Timing(collector),
		middleware.SecurityHeaders,
	)

	// Storefront JSON: no session, no CSRF, cross-origin GET only.
	r.Route("/api/public", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet},
		}).Handler)
		r.Get("/settings", handlePublicSettings)
		r.Get("/flash-deals/featured", handlePublicFeaturedDeal)
	})

	// Images load many at a time per page, so they sit outside the limiter.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(fs.Root())))))

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.RateLimit(limiter),
			middleware.BodyLimit(formBodyLimit()),
			middleware.CSRF(middleware.CSRFOptions{
				Key:            cfg.CSRFKey,
				Secure:         cfg.IsProduction(),
				TrustedOrigins: cfg.CORSOrigins,
			}),
			middleware.Auth(sessions, loadPrincipal),
		)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
		})
		r.HandleFunc("/login", handleLogin)
		r.Post("/logout", handleLogout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.With(middleware.RequirePermission(role.PermDashboard)).Get("/", handleDashboard)
			r.Post("/preview", handleMarkdownPreview)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermProducts))
				r.Get("/products", handleProducts)
				r.Get("/products/seller", handleSellerProducts)
				r.HandleFunc("/products/new", handleProductForm)
				r.HandleFunc("/products/{id}/edit", handleProductForm)
				r.Post("/products/action", productActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermCategories))
				r.Get("/categories", handleCategories)
				r.HandleFunc("/categories/new", handleCategoryForm)
				r.HandleFunc("/categories/{id}/edit", handleCategoryForm)
				r.Post("/categories/action", categoryActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermBanners))
				r.Get("/banners", handleBanners)
				r.HandleFunc("/banners/new", handleBannerForm)
				r.HandleFunc("/banners/{id}/edit", handleBannerForm)
				r.Post("/banners/action", bannerActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermFlashDeals))
				r.Get("/flash-deals", handleFlashDeals)
				r.HandleFunc("/flash-deals/new", handleFlashDealForm)
				r.HandleFunc("/flash-deals/{id}/edit", handleFlashDealForm)
				r.Post("/flash-deals/action", flashDealActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermReviews))
				r.Get("/reviews", handleReviews)
				r.Post("/reviews/action", reviewActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermContacts))
				r.Get("/contacts", handleContacts)
				r.Post("/contacts/action", contactActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermSellerPackages))
				r.Get("/seller-packages", handleSellerPackages)
				r.HandleFunc("/seller-packages/new", handleSellerPackageForm)
				r.HandleFunc("/seller-packages/{id}/edit", handleSellerPackageForm)
				r.Post("/seller-packages/action", sellerPackageActions.ServeHTTP)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(role.PermStaff))
				r.Get("/staff", handleStaff)
				r.HandleFunc("/staff/new", handleStaffForm)
				r.HandleFunc("/staff/{id}/edit", handleStaffForm)
				r.Post("/staff/action", staffActions.ServeHTTP)
				r.Get("/roles", handleRoles)
				r.HandleFunc("/roles/new", handleRoleForm)
				r.HandleFunc("/roles/{id}/edit", handleRoleForm)
				r.Post("/roles/action", roleActions.ServeHTTP)
			})
			r.With(middleware.RequirePermission(role.PermSettings)).HandleFunc("/settings", handleSettings)
			r.With(middleware.RequirePermission(role.PermAudit)).Get("/audit", handleAudit)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if middleware.IsAJAX(r) {
			jsonFail(w, http.StatusNotFound, "not found")
			return
		}
		http.NotFound(w, r)
	})
	return r
}

// noDirListing hides directory indexes of the upload tree.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		next.ServeHTTP(w, r)
	})
}
