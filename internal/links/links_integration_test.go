package links_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/auth"
	"github.com/EmpoweredVote/EV-Links/internal/db/dbtest"
	"github.com/EmpoweredVote/EV-Links/internal/links"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/go-chi/chi/v5"
)

const cookieName = "user_session_id"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gdb := dbtest.New(t)

	roles := rbac.NewStore(gdb)
	authz := rbac.NewAuthorizer(roles, rbac.Config{})
	users := auth.NewStore(gdb)
	sessions := auth.NewSessionManager(gdb, time.Hour)
	authHandler := auth.NewHandler(auth.NewService(gdb, users, sessions, roles, authz), auth.CookieConfig{Name: cookieName})
	linkHandler := links.NewHandler(links.NewService(gdb, links.NewStore(gdb), roles, authz, users))

	noLimit := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	r.Mount("/auth", auth.SetupRoutes(authHandler, sessions, noLimit))
	r.Mount("/links", links.SetupRoutes(linkHandler, sessions, cookieName))
	r.Get("/{label}", linkHandler.RedirectHandler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// newClient keeps cookies and returns redirects instead of following them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func send(t *testing.T, client *http.Client, method, url string, payload any) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func signIn(t *testing.T, srv *httptest.Server, client *http.Client, username, email string) {
	t.Helper()
	resp, body := send(t, client, http.MethodPost, srv.URL+"/auth/register", map[string]string{
		"username":         username,
		"email":            email,
		"password":         "TestPass123!",
		"password_confirm": "TestPass123!",
		"name":             username,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.StatusCode, body)
	}
	resp, body = send(t, client, http.MethodPost, srv.URL+"/auth/login", map[string]string{
		"email":    email,
		"password": "TestPass123!",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
}

// TestCreateThenRedirect walks register, login, create link, public redirect.
func TestCreateThenRedirect(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)
	signIn(t, srv, client, "alice", "alice@example.com")

	resp, body := send(t, client, http.MethodPost, srv.URL+"/links", map[string]string{
		"label": "x",
		"url":   "https://example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create link: %d %s", resp.StatusCode, body)
	}
	var created links.LinkResponse
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	if created.Label != "x" || created.AuthorID == "" {
		t.Errorf("unexpected link: %+v", created)
	}

	// Anonymous visitors get redirected.
	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/x", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "https://example.com" {
		t.Errorf("expected Location https://example.com, got %q", got)
	}

	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown label, got %d", resp.StatusCode)
	}
}

func TestLinkRoutes(t *testing.T) {
	srv := newTestServer(t)
	alice := newClient(t)
	bob := newClient(t)
	signIn(t, srv, alice, "alice", "alice@example.com")
	signIn(t, srv, bob, "bob", "bob@example.com")

	resp, body := send(t, alice, http.MethodPost, srv.URL+"/links", map[string]string{
		"label": "docs",
		"url":   "https://example.com/docs",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create link: %d %s", resp.StatusCode, body)
	}
	var link links.LinkResponse
	_ = json.Unmarshal([]byte(body), &link)

	// Duplicate label.
	resp, body = send(t, bob, http.MethodPost, srv.URL+"/links", map[string]string{
		"label": "docs",
		"url":   "https://example.com/other",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate label, got %d %s", resp.StatusCode, body)
	}

	// Public reads.
	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/links/"+link.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /links/{id}: %d", resp.StatusCode)
	}
	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/links/label/docs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /links/label/docs: %d", resp.StatusCode)
	}

	// Listing requires a session.
	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/links", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 listing without session, got %d", resp.StatusCode)
	}
	resp, body = send(t, alice, http.MethodGet, srv.URL+"/links?limit=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /links: %d %s", resp.StatusCode, body)
	}
	var mine []links.LinkResponse
	_ = json.Unmarshal([]byte(body), &mine)
	if len(mine) != 1 {
		t.Errorf("expected 1 link, got %d", len(mine))
	}
	resp, _ = send(t, alice, http.MethodGet, srv.URL+"/links?limit=500", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for limit=500, got %d", resp.StatusCode)
	}

	// Bob cannot touch alice's link or list her links.
	resp, _ = send(t, bob, http.MethodPut, srv.URL+"/links", map[string]string{
		"id":    link.ID,
		"label": "hijack",
		"url":   "https://evil.example.com",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 updating another user's link, got %d", resp.StatusCode)
	}
	resp, _ = send(t, bob, http.MethodDelete, srv.URL+"/links/"+link.ID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 deleting another user's link, got %d", resp.StatusCode)
	}
	resp, _ = send(t, bob, http.MethodGet, srv.URL+"/links/user/"+link.AuthorID, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 listing another user's links, got %d", resp.StatusCode)
	}

	// Alice updates and deletes her link.
	resp, body = send(t, alice, http.MethodPut, srv.URL+"/links", map[string]string{
		"id":    link.ID,
		"label": "guide",
		"url":   "https://example.com/guide",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", resp.StatusCode, body)
	}
	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/guide", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "https://example.com/guide" {
		t.Errorf("redirect after update: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = send(t, alice, http.MethodDelete, srv.URL+"/links/"+link.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete: %d", resp.StatusCode)
	}
	resp, _ = send(t, newClient(t), http.MethodGet, srv.URL+"/guide", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}
