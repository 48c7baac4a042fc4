package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketadmin/internal/application/orchestrators"
	"marketadmin/internal/domain/staff"
)

func TestSessionStore_Expiry(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	token, err := ss.Create("a1", "a@example.com")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}
	if _, ok := ss.Get(token); !ok {
		t.Fatal("fresh session not found")
	}

	now = now.Add(61 * time.Minute)
	if _, ok := ss.Get(token); ok {
		t.Fatal("expired session still valid")
	}
	ss.now = func() time.Time { return now.Add(-time.Hour) }
	if _, ok := ss.Get(token); ok {
		t.Error("expired session was not purged on read")
	}
}

func TestSessionStore_DeleteForAccountAndPurge(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	t1, _ := ss.Create("a1", "a@example.com")
	ss.Create("a1", "a@example.com")
	t3, _ := ss.Create("b2", "b@example.com")

	if n := ss.DeleteForAccount("a1"); n != 2 {
		t.Errorf("DeleteForAccount = %d, want 2", n)
	}
	if _, ok := ss.Get(t1); ok {
		t.Error("a1 session survived DeleteForAccount")
	}

	now = now.Add(2 * time.Hour)
	if n := ss.Purge(); n != 1 {
		t.Errorf("Purge = %d, want 1", n)
	}
	if _, ok := ss.Get(t3); ok {
		t.Error("b2 session survived Purge")
	}
}

func principalLoader(accounts map[string]orchestrators.Principal) PrincipalLoader {
	return func(ctx context.Context, id string) (orchestrators.Principal, error) {
		p, ok := accounts[id]
		if !ok {
			return orchestrators.Principal{}, orchestrators.ErrAccountUnavailable
		}
		return p, nil
	}
}

func TestAuth_ResolvesPrincipal(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	token, _ := ss.Create("s1", "staff@example.com")
	load := principalLoader(map[string]orchestrators.Principal{
		"s1": {AccountID: "s1", UserType: staff.TypeStaff, Permissions: []string{"products"}},
	})

	var got orchestrators.Principal
	var gotToken string
	handler := Auth(ss, load)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetPrincipal(r.Context())
		gotToken, _ = GetSessionToken(r.Context())
	}))
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.AccountID != "s1" || !got.Can("products") || got.Can("staff") {
		t.Errorf("principal = %+v", got)
	}
	if gotToken != token {
		t.Errorf("session token = %q, want the cookie value", gotToken)
	}
}

// A session whose account disappeared is dropped and the request continues anonymously.
func TestAuth_RevokesUnavailableAccount(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	token, _ := ss.Create("gone", "gone@example.com")

	var authed bool
	handler := Auth(ss, principalLoader(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = GetPrincipal(r.Context())
	}))
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if authed {
		t.Error("request was authenticated")
	}
	if _, ok := ss.Get(token); ok {
		t.Error("session was not deleted")
	}
	if c := rr.Result().Cookies(); len(c) == 0 || c[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c)
	}
}

// A failing store lookup is a server error; the session must survive it.
func TestAuth_StoreFailureKeepsSession(t *testing.T) {
	ss := NewSessionStore(time.Hour)
	token, _ := ss.Create("s1", "staff@example.com")
	load := func(ctx context.Context, id string) (orchestrators.Principal, error) {
		return orchestrators.Principal{}, context.Canceled
	}

	var ran bool
	handler := Auth(ss, load)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	}))
	for _, ajax := range []bool{false, true} {
		req := httptest.NewRequest("GET", "/admin", nil)
		if ajax {
			req.Header.Set("X-Requested-With", "XMLHttpRequest")
		}
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("ajax=%v: status = %d, want 500", ajax, rr.Code)
		}
		if len(rr.Result().Cookies()) != 0 {
			t.Errorf("ajax=%v: cookie touched: %+v", ajax, rr.Result().Cookies())
		}
	}
	if ran {
		t.Error("handler ran without a principal")
	}
	if _, ok := ss.Get(token); !ok {
		t.Error("session was revoked on a transient failure")
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin", nil))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Errorf("page: status = %d, location = %q", rr.Code, rr.Header().Get("Location"))
	}

	req := httptest.NewRequest("POST", "/admin/products/action", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("ajax: status = %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("ajax: content type = %q", ct)
	}

	req = httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(ContextWithSession(req.Context(), "tok-a1", orchestrators.Principal{AccountID: "a1"}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Errorf("authed: status = %d, want handler to run", rr.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission("staff")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	serve := func(p orchestrators.Principal, ajax bool) int {
		req := httptest.NewRequest("GET", "/admin/staff", nil)
		if ajax {
			req.Header.Set("Accept", "application/json")
		}
		req = req.WithContext(ContextWithSession(req.Context(), "tok-"+p.AccountID, p))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	tests := []struct {
		name string
		p    orchestrators.Principal
		ajax bool
		want int
	}{
		{"admin passes", orchestrators.Principal{AccountID: "a", UserType: staff.TypeAdmin}, false, http.StatusTeapot},
		{"staff with permission", orchestrators.Principal{AccountID: "s", UserType: staff.TypeStaff, Permissions: []string{"staff"}}, false, http.StatusTeapot},
		{"staff without permission", orchestrators.Principal{AccountID: "s", UserType: staff.TypeStaff, Permissions: []string{"products"}}, false, http.StatusForbidden},
		{"ajax without permission", orchestrators.Principal{AccountID: "s", UserType: staff.TypeStaff}, true, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(tt.p, tt.ajax); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	defer rl.Stop()
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request within the interval should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other IPs have their own bucket")
	}
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	handler := CSRF(CSRFOptions{Key: make([]byte, 32)})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/admin/products/action", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("GET status = %d, want handler to run", rr.Code)
	}
	var found bool
	for _, c := range rr.Result().Cookies() {
		found = found || c.Name == CSRFCookieName
	}
	if !found {
		t.Error("GET did not issue the CSRF cookie")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}
