package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/auth"
	"github.com/EmpoweredVote/EV-Links/internal/db/dbtest"
	"github.com/EmpoweredVote/EV-Links/internal/links"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/EmpoweredVote/EV-Links/internal/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const cookieName = "user_session_id"

type harness struct {
	db       *gorm.DB
	sessions *auth.SessionManager
	router   http.Handler
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gdb := dbtest.New(t)
	roles := rbac.NewStore(gdb)
	authz := rbac.NewAuthorizer(roles, rbac.Config{AdminEmails: []string{"root@example.com"}})
	store := auth.NewStore(gdb)
	sessions := auth.NewSessionManager(gdb, time.Hour)
	svc := users.NewService(gdb, store, roles, links.NewStore(gdb), authz)
	return harness{
		db:       gdb,
		sessions: sessions,
		router:   users.SetupRoutes(users.NewHandler(svc), sessions, cookieName, authz),
	}
}

// login creates a user and a session for it, returning the cookie value.
func (h harness) login(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), Email: email, Username: email, Name: email, HashedPassword: "x"}
	require.NoError(t, h.db.Create(u).Error)
	s, err := h.sessions.Create(context.Background(), u)
	require.NoError(t, err)
	return u, s.ID
}

func (h harness) do(method, path, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: session})
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRequireSession(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/", "/roles", "/permissions", "/admin-check"} {
		rec := h.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminCheck(t *testing.T) {
	h := newHarness(t)
	_, rootSession := h.login(t, "root@example.com")
	_, aliceSession := h.login(t, "alice@example.com")

	rec := h.do(http.MethodGet, "/admin-check", rootSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok)

	rec = h.do(http.MethodGet, "/admin-check", aliceSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsersRoute(t *testing.T) {
	h := newHarness(t)
	_, rootSession := h.login(t, "root@example.com")
	_, aliceSession := h.login(t, "alice@example.com")

	rec := h.do(http.MethodGet, "/?limit=1", rootSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []auth.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
	assert.NotContains(t, rec.Body.String(), "hashed_password")

	rec = h.do(http.MethodGet, "/?skip=-1", rootSession)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodGet, "/", aliceSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserRoleRoutes(t *testing.T) {
	h := newHarness(t)
	_, rootSession := h.login(t, "root@example.com")
	alice, _ := h.login(t, "alice@example.com")

	name := "editors"
	role := models.Role{ID: uuid.NewString(), Name: &name}
	require.NoError(t, h.db.Create(&role).Error)

	rec := h.do(http.MethodPost, "/"+alice.ID+"/roles/"+role.ID, rootSession)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "assigned")

	rec = h.do(http.MethodPost, "/"+alice.ID+"/roles/"+role.ID, rootSession)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already has")

	rec = h.do(http.MethodGet, "/"+alice.ID+"/roles", rootSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []users.RoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	require.Len(t, roles, 1)
	assert.Equal(t, role.ID, roles[0].ID)
	assert.Zero(t, roles[0].PermissionsCount)

	rec = h.do(http.MethodDelete, "/"+alice.ID+"/roles/"+role.ID, rootSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, "/roles/"+role.ID, rootSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, "/"+alice.ID, rootSession)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodDelete, "/"+alice.ID, rootSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
