package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribithub/portal/backend/internal/apperr"
	"github.com/tribithub/portal/backend/internal/auth"
	"github.com/tribithub/portal/backend/internal/identity/identitytest"
	"github.com/tribithub/portal/backend/internal/mail/mailtest"
	"github.com/tribithub/portal/backend/internal/models"
	"github.com/tribithub/portal/backend/internal/ticket"
	"github.com/tribithub/portal/backend/internal/wiki"
)

type profiles map[string]models.Profile

func (p profiles) Get(_ context.Context, id string) (*models.Profile, error) {
	v, ok := p[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &v, nil
}

func (p profiles) Create(context.Context, *models.Profile) error { return nil }

func (p profiles) ListByIDs(context.Context, []string) ([]models.Profile, error) { return nil, nil }

// categoriesOnly serves ListCategories and panics on anything else.
type categoriesOnly struct{ wiki.Store }

func (categoriesOnly) ListCategories(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Guides"}}, nil
}

type noTickets struct{ ticket.Store }

func (noTickets) ListAll(context.Context) ([]models.Ticket, error) { return []models.Ticket{}, nil }

type failObjects struct{ t *testing.T }

func (f failObjects) Put(context.Context, string, io.Reader, int64, string) (string, error) {
	f.t.Fatal("upload reached object storage")
	return "", nil
}

func (f failObjects) Remove(context.Context, string) error {
	f.t.Fatal("upload reached object storage")
	return nil
}

func testRouter(t *testing.T) http.Handler {
	return testRouterWith(t, nil)
}

func testRouterWith(t *testing.T, magicLink func(*identitytest.Provider) *auth.MagicLinkHandler) http.Handler {
	users := identitytest.New()
	users.AddUser("a1", "root@x.io", "root", "pw")
	users.AddUser("u1", "amy@x.io", "amy", "pw")
	users.AddToken("admin", "a1")
	users.AddToken("user", "u1")
	profs := profiles{
		"a1": {ID: "a1", Username: "root", Role: models.RoleAdmin},
		"u1": {ID: "u1", Username: "amy", Role: models.RoleUser},
	}

	deps := routerDeps{
		corsOrigins: []string{"http://localhost:5173"},
		users:       users,
		profiles:    profs,
		auth:        auth.NewHandler(users, profs, nil),
		tickets:     ticket.NewHandler(ticket.NewService(noTickets{}, users, profs, nil, "TribitHub")),
		wiki:        wiki.NewHandler(wiki.NewService(categoriesOnly{})),
		upload:      wiki.NewUploadHandler(failObjects{t}, 1<<20),
	}
	if magicLink != nil {
		deps.magicLink = magicLink(users)
	}
	return newRouter(deps)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAdminGateOnRoutes(t *testing.T) {
	r := testRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/tickets"},
		{http.MethodGet, "/api/admin/wiki/categories"},
		{http.MethodPost, "/api/admin/wiki/categories"},
		{http.MethodDelete, "/api/admin/wiki/categories/1"},
		{http.MethodPut, "/api/admin/wiki/articles/1"},
		{http.MethodPost, "/api/admin/wiki/upload-image"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			for token, want := range map[string]int{"": http.StatusUnauthorized, "user": http.StatusForbidden} {
				req := httptest.NewRequest(rt.method, rt.path, strings.NewReader(`{}`))
				if token != "" {
					req.Header.Set("Authorization", "Bearer "+token)
				}
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				assert.Equal(t, want, w.Code, "token %q", token)
			}
		})
	}
}

func TestAdminRoutesWithAdminToken(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/admin/wiki/categories", "/api/tickets"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer admin")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestEmailsRouteAbsentWithoutLog(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/emails", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMagicLinkRoute(t *testing.T) {
	rec := &mailtest.Recorder{}
	r := testRouterWith(t, func(users *identitytest.Provider) *auth.MagicLinkHandler {
		return auth.NewMagicLinkHandler(users, rec, "TribitHub", "https://portal.example.com", 15*time.Minute)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/magic-link", strings.NewReader(`{"email":"amy@x.io"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, rec.Sent(), 1)

	w = httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/magic-link", strings.NewReader(`{"email":"amy@x.io"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
