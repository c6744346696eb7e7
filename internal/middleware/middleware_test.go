package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/middleware"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
)

const cookieName = "user_session_id"

// mockFetcher implements middleware.SessionFetcher without any database dependency.
type mockFetcher struct {
	user *models.User
	err  error
}

func (m mockFetcher) Resolve(_ context.Context, id string) (*models.User, error) {
	return m.user, m.err
}

type mockAdmin struct {
	admin bool
	err   error
}

func (m mockAdmin) IsAdmin(context.Context, *models.User) (bool, error) {
	return m.admin, m.err
}

var ok200 = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// callWithCookie wraps a simple 200-OK inner handler in the provided middleware,
// optionally setting one cookie on the request, and returns the recorded response.
func callWithCookie(t *testing.T, mw func(http.Handler) http.Handler, name, value string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if name != "" {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	rec := httptest.NewRecorder()
	mw(ok200).ServeHTTP(rec, req)
	return rec
}

func TestSessionMiddleware_MissingCookie(t *testing.T) {
	mw := middleware.SessionMiddleware(mockFetcher{}, cookieName)

	rec := callWithCookie(t, mw, "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSessionMiddleware_WrongCookieName(t *testing.T) {
	mw := middleware.SessionMiddleware(mockFetcher{user: &models.User{ID: "u"}}, cookieName)

	rec := callWithCookie(t, mw, "session_id", "some-id")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// An expired session surfaces the fetcher's detail message.
func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	mw := middleware.SessionMiddleware(mockFetcher{err: apperr.Unauthenticated("Session expired")}, cookieName)

	rec := callWithCookie(t, mw, cookieName, "expired-session-id")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Session expired") {
		t.Errorf("expected body to contain %q, got: %q", "Session expired", body)
	}
}

// A storage failure is a 500, not a 401.
func TestSessionMiddleware_FetcherError(t *testing.T) {
	mw := middleware.SessionMiddleware(mockFetcher{err: errors.New("connection refused")}, cookieName)

	rec := callWithCookie(t, mw, cookieName, "some-id")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestSessionMiddleware_ValidSession(t *testing.T) {
	const wantUserID = "test-user-123"
	mw := middleware.SessionMiddleware(mockFetcher{user: &models.User{ID: wantUserID}}, cookieName)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := utils.GetUserFromContext(r.Context())
		if !ok || user.ID != wantUserID {
			http.Error(w, "wrong user in context", http.StatusInternalServerError)
			return
		}
		if id, _ := utils.GetSessionIDFromContext(r.Context()); id != "valid-session-id" {
			http.Error(w, "wrong session id in context: "+id, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "valid-session-id"})
	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

// TestAdminMiddleware_MissingUser verifies that AdminMiddleware returns 401 when
// SessionMiddleware did not run.
func TestAdminMiddleware_MissingUser(t *testing.T) {
	rec := callWithCookie(t, middleware.AdminMiddleware(mockAdmin{admin: true}), "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAdminMiddleware(t *testing.T) {
	cases := []struct {
		name  string
		admin mockAdmin
		want  int
	}{
		{"admin", mockAdmin{admin: true}, http.StatusOK},
		{"not admin", mockAdmin{admin: false}, http.StatusForbidden},
		{"lookup failure", mockAdmin{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req = req.WithContext(utils.WithSession(req.Context(), &models.User{ID: "u"}, "s"))
			rec := httptest.NewRecorder()

			middleware.AdminMiddleware(tc.admin)(ok200).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	mw := middleware.CORSMiddleware([]string{"http://localhost:3000"})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		mw(ok200).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("expected origin echoed, got %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("expected credentials allowed, got %q", got)
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		mw(ok200).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/links", nil)
		rec := httptest.NewRecorder()
		mw(ok200).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(0, 2))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		mw(ok200).ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, codes)
		}
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "198.51.100.1:4000"
	rec := httptest.NewRecorder()
	mw(ok200).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for a fresh client, got %d", rec.Code)
	}
}
