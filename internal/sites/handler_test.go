package sites

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinco/internal/auth"
	"pinco/internal/logs"
	"pinco/internal/models"
	"pinco/internal/repo"
)

func TestMain(m *testing.M) {
	logs.Init(logs.Options{Level: "error"})
	m.Run()
}

type fakeSiteStore struct {
	nextID uint
	rows   map[uint]*models.Site
}

func newFakeSiteStore() *fakeSiteStore {
	return &fakeSiteStore{nextID: 1, rows: map[uint]*models.Site{}}
}

func (f *fakeSiteStore) domainTaken(domain string, selfID uint) bool {
	for _, s := range f.rows {
		if s.Domain == domain && s.ID != selfID {
			return true
		}
	}
	return false
}

func (f *fakeSiteStore) Create(_ context.Context, s *models.Site) error {
	if f.domainTaken(s.Domain, 0) {
		return repo.ErrConflict
	}
	s.ID = f.nextID
	f.nextID++
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSiteStore) GetByID(_ context.Context, id uint) (*models.Site, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSiteStore) List(_ context.Context) ([]models.Site, error) {
	var out []models.Site
	for _, s := range f.rows {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSiteStore) Update(_ context.Context, s *models.Site) error {
	if f.domainTaken(s.Domain, s.ID) {
		return repo.ErrConflict
	}
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSiteStore) Delete(_ context.Context, id uint) error {
	if _, ok := f.rows[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type noMemberships struct{}

func (noMemberships) ListByUser(context.Context, uint) ([]models.UserSite, error) { return nil, nil }

type scene struct {
	router *mux.Router
	codec  *auth.TokenCodec
	store  *fakeSiteStore
}

func newScene() *scene {
	store := newFakeSiteStore()
	codec := auth.NewTokenCodec("sites-secret-1234567890", time.Hour)
	gate := auth.NewMiddleware(codec, noMemberships{}, "token")

	r := mux.NewRouter().StrictSlash(true)
	RegisterRoutes(r, New(store), gate)
	return &scene{router: r, codec: codec, store: store}
}

func (s *scene) do(method, path, body string, roles models.RoleList) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if roles != nil {
		u := &models.User{Email: "root@test.com", Roles: roles}
		u.ID = 1
		req.AddCookie(&http.Cookie{Name: "token", Value: s.codec.Sign(u)})
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestSites_RootOnly(t *testing.T) {
	s := newScene()
	rec := s.do("GET", "/sites", "", models.RoleList{models.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do("GET", "/sites", "", models.RoleList{models.RoleRoot})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSites_CreateDuplicateDomainIs409(t *testing.T) {
	s := newScene()
	root := models.RoleList{models.RoleRoot}

	rec := s.do("POST", "/sites", `{"name":"A","domain":"a.com"}`, root)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do("POST", "/sites", `{"name":"B","domain":"a.com"}`, root)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSites_UpdateToTakenDomainIs409(t *testing.T) {
	s := newScene()
	root := models.RoleList{models.RoleRoot}

	rec := s.do("POST", "/sites", `{"name":"A","domain":"a.com"}`, root)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do("POST", "/sites", `{"name":"B","domain":"b.com"}`, root)
	require.Equal(t, http.StatusCreated, rec.Code)

	// перевод b.com на занятый домен — конфликт, не 500
	rec = s.do("POST", "/sites/2", `{"domain":"a.com"}`, root)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// свой собственный домен — не конфликт
	rec = s.do("POST", "/sites/2", `{"domain":"b.com","name":"B2"}`, root)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
