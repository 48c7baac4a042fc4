package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"marketadmin/internal/application/orchestrators"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	principalContextKey contextKey = "principal"
	tokenContextKey     contextKey = "session_token"
)

// Session represents an authenticated session.
type Session struct {
	AccountID string
	Email     string
	CreatedAt time.Time
}

// SessionStore is an in-memory session store. Sessions expire ttl after creation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
// PRE: ttl > 0
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the session lifetime.
func (ss *SessionStore) TTL() time.Duration {
	return ss.ttl
}

// Create stores a new session and returns the token.
// PRE: accountID and email are non-empty
// POST: Session is stored, token is returned
func (ss *SessionStore) Create(accountID, email string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{
		AccountID: accountID,
		Email:     email,
		CreatedAt: ss.now(),
	}
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns session if valid and not expired; an expired session is purged
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	session, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > ss.ttl {
		ss.Delete(token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// DeleteForAccount removes every session of an account.
// POST: Returns the number of sessions removed
func (ss *SessionStore) DeleteForAccount(accountID string) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for token, s := range ss.sessions {
		if s.AccountID == accountID {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// Purge drops expired sessions.
func (ss *SessionStore) Purge() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	now := ss.now()
	for token, s := range ss.sessions {
		if now.Sub(s.CreatedAt) > ss.ttl {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// SessionCookieName is the cookie holding the session token.
const SessionCookieName = "marketadmin_session"

// SecureCookies marks session cookies Secure. Set in production.
var SecureCookies bool

// PrincipalLoader resolves the account behind a session.
type PrincipalLoader func(ctx context.Context, accountID string) (orchestrators.Principal, error)

// Auth returns middleware that resolves the session cookie to a principal and
// stores both in the request context. Sessions whose account was deleted or
// banned are dropped; any other load failure answers 500 and keeps the session.
// It does NOT block unauthenticated requests; use RequireAuth or
// RequirePermission for that.
func Auth(sessions *SessionStore, load PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			session, ok := sessions.Get(cookie.Value)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := load(r.Context(), session.AccountID)
			if errors.Is(err, orchestrators.ErrAccountUnavailable) {
				slog.Info("auth_event", "event", "session_revoked", "account_id", session.AccountID, "reason", err.Error())
				sessions.Delete(cookie.Value)
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("load_principal_failed", "account_id", session.AccountID, "error", err)
				if IsAJAX(r) {
					deny(w, http.StatusInternalServerError, "something went wrong, please try again")
					return
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), cookie.Value, principal)))
		})
	}
}

// RequireAuth returns middleware that blocks unauthenticated requests. Pages
// redirect to /login; AJAX requests get a 401 JSON envelope.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			if IsAJAX(r) {
				deny(w, http.StatusUnauthorized, "your session has expired, please sign in again")
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission returns middleware that blocks principals lacking permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				if IsAJAX(r) {
					deny(w, http.StatusUnauthorized, "your session has expired, please sign in again")
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !p.Can(permission) {
				slog.Warn("auth_denied", "path", r.URL.Path, "account_id", p.AccountID, "required", permission)
				if IsAJAX(r) {
					deny(w, http.StatusForbidden, "you do not have permission to do this")
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAJAX reports whether the request came from the admin JavaScript helpers
// or otherwise asks for JSON.
func IsAJAX(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// deny writes the failure envelope shared with the page handlers.
func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// GetPrincipal extracts the signed-in principal from the request context.
func GetPrincipal(ctx context.Context) (orchestrators.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(orchestrators.Principal)
	return p, ok
}

// GetSessionToken returns the token of the current session.
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// ContextWithSession returns a context carrying the session token and its principal.
func ContextWithSession(ctx context.Context, token string, p orchestrators.Principal) context.Context {
	ctx = context.WithValue(ctx, principalContextKey, p)
	return context.WithValue(ctx, tokenContextKey, token)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
