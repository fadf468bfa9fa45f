package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinco/internal/auth"
	"pinco/internal/models"
	"pinco/internal/repo"
)

type fakeSites struct {
	byDomain map[string]*models.Site
}

func (f *fakeSites) GetActiveByDomain(_ context.Context, domain string) (*models.Site, error) {
	s, ok := f.byDomain[domain]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s, nil
}

type fakeMemberships struct {
	byUser map[uint][]models.UserSite
}

func (f *fakeMemberships) ListByUser(_ context.Context, userID uint) ([]models.UserSite, error) {
	return f.byUser[userID], nil
}

func TestOriginHost(t *testing.T) {
	// никакой нормализации: sub, www и голый домен — разные хосты
	cases := map[string]string{
		"https://sub.test.com:8080/path": "sub.test.com",
		"https://test.com/":              "test.com",
		"https://www.test.com":           "www.test.com",
		"http://test.com:3000":           "test.com",
	}
	for origin, want := range cases {
		req := httptest.NewRequest("GET", "/comments", nil)
		req.Header.Set("Origin", origin)
		assert.Equal(t, want, originHost(req), "origin=%s", origin)
	}
}

func TestOriginHost_RefererFallback(t *testing.T) {
	req := httptest.NewRequest("GET", "/comments", nil)
	req.Header.Set("Referer", "https://test.com/some/page/")
	assert.Equal(t, "test.com", originHost(req))
}

// сцепка: гейт аутентификации → тенант-гейт → обработчик
type fixture struct {
	codec *auth.TokenCodec
	chain http.Handler
	site  *models.Site
	seen  **models.Site
}

func newFixture(siteRoles models.RoleList) *fixture {
	site := &models.Site{Name: "Test", Domain: "test.com", URL: "https://test.com", Active: true}
	site.ID = 2

	sites := &fakeSites{byDomain: map[string]*models.Site{"test.com": site}}
	ms := &fakeMemberships{byUser: map[uint][]models.UserSite{}}
	if siteRoles != nil {
		ms.byUser[5] = []models.UserSite{{UserID: 5, SiteID: 2, Roles: siteRoles}}
	}

	codec := auth.NewTokenCodec("tenant-secret-1234567890", time.Hour)
	gate := auth.NewMiddleware(codec, ms, "token")
	resolver := NewResolver(sites)

	seen := new(*models.Site)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = SiteFrom(r)
		w.WriteHeader(http.StatusOK)
	})
	return &fixture{
		codec: codec,
		chain: gate.Optional().Handler(resolver.Handler(handler)),
		site:  site,
		seen:  seen,
	}
}

func (f *fixture) request(origin string, authenticated bool) *http.Request {
	req := httptest.NewRequest("GET", "/comments", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if authenticated {
		u := &models.User{Email: "alice@test.com"}
		u.ID = 5
		req.AddCookie(&http.Cookie{Name: "token", Value: f.codec.Sign(u)})
	}
	return req
}

func TestResolver_MissingOrigin(t *testing.T) {
	f := newFixture(models.RoleList{models.SiteRoleCollaborator})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("", true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "origin not provided")
}

func TestResolver_UnknownSite(t *testing.T) {
	f := newFixture(models.RoleList{models.SiteRoleCollaborator})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://other.com", true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or inactive site")
}

func TestResolver_WWWIsDistinct(t *testing.T) {
	f := newFixture(models.RoleList{models.SiteRoleCollaborator})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://www.test.com", true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResolver_AnonymousDenied(t *testing.T) {
	// аутентификация была optional, но тенант-гейт требует identity
	f := newFixture(models.RoleList{models.SiteRoleCollaborator})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://test.com", false))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not have access")
}

func TestResolver_NonMemberDenied(t *testing.T) {
	f := newFixture(nil) // членств нет
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://test.com", true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResolver_NonCollaboratorDenied(t *testing.T) {
	f := newFixture(models.RoleList{"viewer"})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://test.com", true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResolver_CollaboratorAllowed(t *testing.T) {
	f := newFixture(models.RoleList{models.SiteRoleCollaborator})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://sub-path-ignored.test.com:8080", true))
	// порт отрезается, но поддомен — другой хост
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://test.com/deep/path/", true))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, *f.seen)
	assert.Equal(t, f.site.ID, (*f.seen).ID)
}

func TestResolver_SiteAdminImpliesCollaborator(t *testing.T) {
	f := newFixture(models.RoleList{models.SiteRoleAdmin})
	rec := httptest.NewRecorder()
	f.chain.ServeHTTP(rec, f.request("https://test.com", true))
	assert.Equal(t, http.StatusOK, rec.Code)
}
