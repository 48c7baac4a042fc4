package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// Steady traffic at the configured rate must never be refused.
func TestRateLimiter_RefillsBetweenRequests(t *testing.T) {
	rl := NewRateLimiter(20, time.Second)
	defer rl.Stop()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 40; i++ {
		if !rl.allowAt("10.0.0.1", start.Add(time.Duration(i)*100*time.Millisecond)) {
			t.Fatalf("request %d at 10/s was refused by a 20/s limiter", i)
		}
	}
}

func TestRateLimiter_BurstThenFractionalRefill(t *testing.T) {
	rl := NewRateLimiter(20, time.Second)
	defer rl.Stop()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		if !rl.allowAt("10.0.0.1", now) {
			t.Fatalf("burst request %d refused", i)
		}
	}
	if rl.allowAt("10.0.0.1", now) {
		t.Fatal("request beyond the burst was allowed")
	}
	// One token takes 50ms at 20/s.
	if rl.allowAt("10.0.0.1", now.Add(30*time.Millisecond)) {
		t.Error("allowed before a whole token refilled")
	}
	if !rl.allowAt("10.0.0.1", now.Add(55*time.Millisecond)) {
		t.Error("refused after a token refilled")
	}
	// Idle time never banks more than one burst.
	later := now.Add(time.Hour)
	allowed := 0
	for i := 0; i < 30; i++ {
		if rl.allowAt("10.0.0.1", later) {
			allowed++
		}
	}
	if allowed != 20 {
		t.Errorf("allowed after idle = %d, want 20", allowed)
	}
}

func multipartBody(t *testing.T, fileSize int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("csrf_token", "tok")
	fw, err := mw.CreateFormFile("image", "big.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(bytes.Repeat([]byte{0}, fileSize))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestBodyLimit(t *testing.T) {
	var reached bool
	var token string
	handler := BodyLimit(1 << 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		token = r.PostFormValue("csrf_token")
	}))

	tests := []struct {
		name     string
		fileSize int
		chunked  bool
		ajax     bool
		wantCode int
	}{
		{"small form passes", 100, false, false, http.StatusOK},
		{"declared length over limit", 4 << 10, false, false, http.StatusBadRequest},
		{"chunked body over limit", 4 << 10, true, false, http.StatusBadRequest},
		{"ajax over limit", 4 << 10, false, true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached, token = false, ""
			body, ct := multipartBody(t, tt.fileSize)
			req := httptest.NewRequest(http.MethodPost, "/admin/banners/new", body)
			req.Header.Set("Content-Type", ct)
			if tt.chunked {
				req.ContentLength = -1
			}
			if tt.ajax {
				req.Header.Set("X-Requested-With", "XMLHttpRequest")
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				if token != "tok" {
					t.Errorf("form field = %q, want the parsed value", token)
				}
				return
			}
			if reached {
				t.Error("oversized body reached the handler")
			}
			if !strings.Contains(rr.Body.String(), "larger than the allowed size") {
				t.Errorf("body = %q", rr.Body.String())
			}
			if tt.ajax && rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("ajax content type = %q", rr.Header().Get("Content-Type"))
			}
		})
	}

	reached = false
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin", nil))
	if !reached {
		t.Error("GET was blocked")
	}
}
