package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"marketadmin/internal/adapters/email"
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
	"marketadmin/internal/adapters/storage/storagetest"
	uploadStore "marketadmin/internal/adapters/storage/upload"
	"marketadmin/internal/adapters/uploads"
	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/config"
)

const (
	adminEmail   = "admin@example.com"
	testPassword = "correct-horse-1"
)

// testApp is a router over a migrated in-memory database.
type testApp struct {
	db     *sql.DB
	srv    *httptest.Server
	stores *Stores
	mail   *email.NoopSender
	files  *uploads.FileStore
}

// session is one signed-in browser.
type session struct {
	t      *testing.T
	app    *testApp
	client *http.Client
	token  string
}

// envelopeResponse mirrors the JSON envelope for assertions.
type envelopeResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newTestApp builds the app; configure hooks adjust the config before routing.
func newTestApp(t *testing.T, configure ...func(*config.Config)) *testApp {
	t.Helper()
	db := storagetest.OpenDB(t)
	s := &Stores{
		StaffStore:         staffStore.NewSQLiteStore(db),
		RoleStore:          roleStore.NewSQLiteStore(db),
		SettingStore:       settingStore.NewSQLiteStore(db),
		UploadStore:        uploadStore.NewSQLiteStore(db),
		CategoryStore:      categoryStore.NewSQLiteStore(db),
		ProductStore:       productStore.NewSQLiteStore(db),
		BannerStore:        bannerStore.NewSQLiteStore(db),
		FlashDealStore:     flashDealStore.NewSQLiteStore(db),
		ReviewStore:        reviewStore.NewSQLiteStore(db),
		ContactStore:       contactStore.NewSQLiteStore(db),
		SellerPackageStore: sellerPackageStore.NewSQLiteStore(db),
		AuditStore:         auditStore.NewSQLiteStore(db),
	}
	ctx := context.Background()
	if _, err := orchestrators.ExecuteSeedSettings(ctx, orchestrators.SettingsDeps{SettingStore: s.SettingStore, Now: time.Now}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	if _, _, err := orchestrators.ExecuteCreateAdmin(ctx, orchestrators.CreateAdminInput{
		Name: "Owner", Email: adminEmail, Password: testPassword,
	}, orchestrators.CreateAdminDeps{StaffStore: s.StaffStore, GenerateID: uuid.NewString, Now: time.Now}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	fs, err := uploads.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	cfg := &config.Config{
		Env:           config.EnvDevelopment,
		CSRFKey:       bytes.Repeat([]byte("k"), 32),
		MaxUploadSize: 1 << 20,
		RateLimit:     10000,
		SessionTTL:    time.Hour,
		CORSOrigins:   []string{"https://shop.example.com"},
	}
	for _, fn := range configure {
		fn(cfg)
	}
	mail := email.NewNoopSender()
	SetEmailSender(mail)
	srv := httptest.NewServer(NewRouter(cfg, s, perf.NewCollector(256), fs))
	t.Cleanup(srv.Close)
	return &testApp{db: db, srv: srv, stores: s, mail: mail, files: fs}
}

// newClient returns a cookie-keeping client that does not follow redirects.
func (a *testApp) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// csrfToken extracts the form token from a rendered page.
func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfInput.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no csrf_token in page:\n%s", body)
	}
	return html.UnescapeString(m[1])
}

// anonymous returns a session that has loaded the login page but not signed in.
func (a *testApp) anonymous(t *testing.T) *session {
	t.Helper()
	s := &session{t: t, app: a, client: a.newClient(t)}
	res, body := s.get("/login")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /login = %d", res.StatusCode)
	}
	s.token = csrfToken(t, body)
	return s
}

// login signs in and fails the test unless the server redirects to /admin.
func (a *testApp) login(t *testing.T, emailAddr, password string) *session {
	t.Helper()
	s := a.anonymous(t)
	res, body := s.postForm("/login", url.Values{"email": {emailAddr}, "password": {password}})
	if res.StatusCode != http.StatusSeeOther || res.Header.Get("Location") != "/admin" {
		t.Fatalf("login %s = %d %q\n%s", emailAddr, res.StatusCode, res.Header.Get("Location"), body)
	}
	return s
}

// staffWith creates a staff account whose role grants perms and returns its id.
func (a *testApp) staffWith(t *testing.T, emailAddr string, perms ...string) string {
	t.Helper()
	ctx := context.Background()
	r, err := orchestrators.ExecuteSaveRole(ctx, orchestrators.SaveRoleInput{
		Name: "role for " + emailAddr, Permissions: perms,
	}, orchestrators.SaveRoleDeps{RoleStore: a.stores.RoleStore, GenerateID: uuid.NewString, Now: time.Now})
	if err != nil {
		t.Fatalf("save role: %v", err)
	}
	acct, err := orchestrators.ExecuteSaveStaff(ctx, orchestrators.SaveStaffInput{
		Name: "Staff", Email: emailAddr, RoleID: r.ID, Password: testPassword,
	}, orchestrators.SaveStaffDeps{
		StaffStore: a.stores.StaffStore, RoleStore: a.stores.RoleStore,
		GenerateID: uuid.NewString, Now: time.Now,
	})
	if err != nil {
		t.Fatalf("save staff: %v", err)
	}
	return acct.ID
}

func (s *session) do(req *http.Request) (*http.Response, string) {
	s.t.Helper()
	res, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		s.t.Fatalf("read body: %v", err)
	}
	return res, string(b)
}

func (s *session) get(path string) (*http.Response, string) {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.app.srv.URL+path, nil)
	if err != nil {
		s.t.Fatal(err)
	}
	return s.do(req)
}

// postForm submits a page form with the session's CSRF token.
func (s *session) postForm(path string, form url.Values) (*http.Response, string) {
	s.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", s.token)
	req, err := http.NewRequest(http.MethodPost, s.app.srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		s.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// postMultipart submits an upload form; files maps field name to file name and body.
func (s *session) postMultipart(path string, form url.Values, files map[string][2]string) (*http.Response, string) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("csrf_token", s.token)
	for k, vs := range form {
		for _, v := range vs {
			mw.WriteField(k, v)
		}
	}
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		if err != nil {
			s.t.Fatal(err)
		}
		fw.Write([]byte(f[1]))
	}
	mw.Close()
	req, err := http.NewRequest(http.MethodPost, s.app.srv.URL+path, &buf)
	if err != nil {
		s.t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

// action posts an AJAX action the way the admin JavaScript does.
func (s *session) action(path string, form url.Values) (int, envelopeResponse) {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.app.srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		s.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", s.token)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	res, body := s.do(req)
	var env envelopeResponse
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		s.t.Fatalf("%s: response is not an envelope (%d): %s", path, res.StatusCode, body)
	}
	return res.StatusCode, env
}

// pngBytes is a 1x1 PNG.
var pngBytes = string([]byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
})
