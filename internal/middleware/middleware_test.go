package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/templui/travelmap/internal/ctxkeys"
	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/session"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(okHandler), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("order = %v", order)
	}
}

func newAuth(t *testing.T) (*service.AuthService, *session.Session) {
	t.Helper()
	auth, err := service.NewAuthService("letmein", session.NewMemoryStore(time.Hour), false)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := auth.Login(context.Background(), "letmein")
	if err != nil {
		t.Fatal(err)
	}
	return auth, sess
}

func TestSessionAuthAndRequireAuth(t *testing.T) {
	auth, sess := newAuth(t)
	h := Chain(RequireAuth(okHandler), SessionAuth(auth))

	tests := []struct {
		name       string
		path       string
		cookie     string
		wantStatus int
		wantHeader string
	}{
		{name: "page without session", path: "/", wantStatus: http.StatusSeeOther, wantHeader: "/login"},
		{name: "api without session", path: "/api/locations", wantStatus: http.StatusUnauthorized},
		{name: "admin without session", path: "/admin/optimize-images", wantStatus: http.StatusUnauthorized},
		{name: "stale cookie", path: "/", cookie: "deadbeef", wantStatus: http.StatusSeeOther, wantHeader: "/login"},
		{name: "valid session", path: "/api/locations", cookie: sess.Token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: service.SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantHeader != "" && rec.Header().Get("Location") != tt.wantHeader {
				t.Errorf("Location = %q", rec.Header().Get("Location"))
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
				t.Errorf("401 Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestSessionAuthClearsStaleCookie(t *testing.T) {
	auth, _ := newAuth(t)
	h := SessionAuth(auth)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: service.SessionCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != service.SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %v, want the session cookie cleared", cookies)
	}
}

func TestRequireGuest(t *testing.T) {
	h := RequireGuest(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("guest status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(ctxkeys.WithSession(req.Context(), &session.Session{Authenticated: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("logged-in status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestCSRFProtection(t *testing.T) {
	var seen string
	h := CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.CSRFToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// GET issues a token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != csrfCookieName {
		t.Fatalf("cookies = %v", cookies)
	}
	token := cookies[0].Value
	if seen != token {
		t.Error("context token differs from cookie")
	}

	post := func(header, field string) int {
		form := url.Values{}
		if field != "" {
			form.Set(csrfFormField, field)
		}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		if header != "" {
			req.Header.Set(csrfHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(token, ""); code != http.StatusOK {
		t.Errorf("header token status = %d", code)
	}
	if code := post("", token); code != http.StatusOK {
		t.Errorf("form token status = %d", code)
	}
	if code := post("", ""); code != http.StatusForbidden {
		t.Errorf("missing token status = %d", code)
	}
	if code := post(strings.Repeat("A", len(token)), ""); code != http.StatusForbidden {
		t.Errorf("wrong token status = %d", code)
	}
}

func TestNonceAndSecurityHeaders(t *testing.T) {
	var templNonce string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		templNonce = templ.GetNonce(r.Context())
	}), NonceMiddleware, SecurityHeaders)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if templNonce == "" {
		t.Fatal("no nonce in templ context")
	}
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-"+templNonce+"'") {
		t.Errorf("CSP %q does not carry the nonce", csp)
	}
	if !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP %q allows framing", csp)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff missing")
	}

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec2.Header().Get("Content-Security-Policy") == csp {
		t.Error("nonce reused across requests")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &RateLimiter{requests: map[string][]time.Time{}, limit: 2, window: time.Minute}
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two attempts rejected")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third attempt allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other IP throttled")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("attempt after the window rejected")
	}

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	if len(rl.requests) != 0 {
		t.Errorf("cleanup left %d entries", len(rl.requests))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := &RateLimiter{requests: map[string][]time.Time{}, limit: 1, window: time.Hour, now: time.Now}
	var calls atomic.Int32
	h := RateLimit(rl)(func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:4321"
		rec := httptest.NewRecorder()
		h(rec, req)
		if rec.Code != want {
			t.Errorf("attempt %d status = %d, want %d", i+1, rec.Code, want)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("handler called %d times", calls.Load())
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded", header: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:1", want: "203.0.113.7"},
		{name: "real ip", header: map[string]string{"X-Real-IP": " 198.51.100.2 "}, remote: "10.0.0.1:1", want: "198.51.100.2"},
		{name: "remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remote: "[::1]:5555", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	body := strings.NewReader(strings.Repeat("x", 10+multipartOverhead+1))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", body))

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("read err = %v, want *http.MaxBytesError", readErr)
	}
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
