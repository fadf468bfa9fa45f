package users

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

type pairKey struct{ userID, siteID uint }

// fakeStore закрывает интерфейсы хендлера и обоих кодеков разом.
type fakeStore struct {
	nextID      uint
	users       map[uint]*models.User
	sites       map[uint]*models.Site
	memberships map[pairKey]*models.UserSite
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:      1,
		users:       map[uint]*models.User{},
		sites:       map[uint]*models.Site{},
		memberships: map[pairKey]*models.UserSite{},
	}
}

func (f *fakeStore) taken(email, username string, selfID uint) bool {
	for _, u := range f.users {
		if u.ID != selfID && (u.Email == email || u.Username == username) {
			return true
		}
	}
	return false
}

func (f *fakeStore) Create(_ context.Context, u *models.User) error {
	if f.taken(u.Email, u.Username, 0) {
		return repo.ErrConflict
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, u *models.User) error {
	if f.taken(u.Email, u.Username, u.ID) {
		return repo.ErrConflict
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id, actorID uint) error {
	if id == actorID {
		return repo.ErrSelfDelete
	}
	if _, ok := f.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) SetSecret(_ context.Context, userID uint, secret string) error {
	f.users[userID].SecretToken = &secret
	return nil
}

func (f *fakeStore) GetActiveBySecret(_ context.Context, secret string) (*models.User, error) {
	for _, u := range f.users {
		if u.SecretToken != nil && *u.SecretToken == secret && u.Active {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ClearSecret(_ context.Context, userID uint) error {
	f.users[userID].SecretToken = nil
	return nil
}

func (f *fakeStore) GetSiteByID(_ context.Context, id uint) (*models.Site, error) {
	s, ok := f.sites[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) CreateMembership(_ context.Context, m *models.UserSite) error {
	k := pairKey{m.UserID, m.SiteID}
	if _, ok := f.memberships[k]; ok {
		return repo.ErrConflict
	}
	f.memberships[k] = m
	return nil
}

func (f *fakeStore) Get(_ context.Context, userID, siteID uint) (*models.UserSite, error) {
	m, ok := f.memberships[pairKey{userID, siteID}]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID uint) ([]models.UserSite, error) {
	var out []models.UserSite
	for k, m := range f.memberships {
		if k.userID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// UpdateRoles: существование проверяется, «роли не изменились» — не ошибка.
func (f *fakeStore) UpdateRoles(_ context.Context, userID, siteID uint, roles models.RoleList) error {
	m, ok := f.memberships[pairKey{userID, siteID}]
	if !ok {
		return repo.ErrNotFound
	}
	m.Roles = roles
	return nil
}

func (f *fakeStore) DeleteMembership(_ context.Context, userID, siteID uint) error {
	k := pairKey{userID, siteID}
	if _, ok := f.memberships[k]; !ok {
		return repo.ErrNotFound
	}
	delete(f.memberships, k)
	return nil
}

func (f *fakeStore) GetByInviteCode(_ context.Context, userID, siteID uint, code string) (*models.UserSite, error) {
	m, ok := f.memberships[pairKey{userID, siteID}]
	if !ok || m.InviteCode == nil || *m.InviteCode != code {
		return nil, repo.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) SetInviteCode(_ context.Context, userID, siteID uint, code string) error {
	f.memberships[pairKey{userID, siteID}].InviteCode = &code
	return nil
}

func (f *fakeStore) ClearInviteCode(_ context.Context, userID, siteID uint) error {
	if m, ok := f.memberships[pairKey{userID, siteID}]; ok {
		m.InviteCode = nil
	}
	return nil
}

// memberView и siteView разводят методы с одинаковыми именами интерфейсов.
type memberView struct{ *fakeStore }

func (v memberView) Create(ctx context.Context, m *models.UserSite) error {
	return v.CreateMembership(ctx, m)
}

func (v memberView) Delete(ctx context.Context, userID, siteID uint) error {
	return v.DeleteMembership(ctx, userID, siteID)
}

type siteView struct{ *fakeStore }

func (v siteView) GetByID(ctx context.Context, id uint) (*models.Site, error) {
	return v.GetSiteByID(ctx, id)
}

type fakeEvents struct{ published []any }

func (f *fakeEvents) Publish(ev any) { f.published = append(f.published, ev) }

type scene struct {
	router *mux.Router
	codec  *auth.TokenCodec
	store  *fakeStore
	events *fakeEvents
}

func newScene(t *testing.T) *scene {
	t.Helper()
	store := newFakeStore()

	alice := &models.User{Email: "alice@test.com", Username: "alice", Active: true}
	bob := &models.User{Email: "bob@test.com", Username: "bob", Active: true}
	require.NoError(t, store.Create(context.Background(), alice))
	require.NoError(t, store.Create(context.Background(), bob))

	site := &models.Site{Name: "Test", Domain: "test.com", Active: true}
	site.ID = 2
	store.sites[2] = site
	store.memberships[pairKey{alice.ID, 2}] = &models.UserSite{
		UserID: alice.ID, SiteID: 2,
		Roles: models.RoleList{models.SiteRoleCollaborator},
		Site:  *site,
	}

	codec := auth.NewTokenCodec("users-secret-1234567890", time.Hour)
	secrets := auth.NewSecretTokens(store)
	invites := auth.NewInvites("users-secret-1234567890", time.Hour, memberView{store}, store)
	gate := auth.NewMiddleware(codec, memberView{store}, "token")
	events := &fakeEvents{}

	r := mux.NewRouter().StrictSlash(true)
	h := New(store, memberView{store}, siteView{store}, secrets, invites, events, "https://api.test.com")
	RegisterRoutes(r, h, gate)
	return &scene{router: r, codec: codec, store: store, events: events}
}

func (s *scene) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	admin := &models.User{Email: "admin@test.com", Roles: models.RoleList{models.RoleAdmin}}
	admin.ID = 99
	req.AddCookie(&http.Cookie{Name: "token", Value: s.codec.Sign(admin)})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestUsers_UpdateToTakenEmailIs409(t *testing.T) {
	s := newScene(t)

	// e-mail боба уже занят — конфликт, не 500
	rec := s.do("POST", "/users/1", `{"email":"bob@test.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = s.do("POST", "/users/1", `{"username":"bob"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// смена на свободный — обычный 200
	rec = s.do("POST", "/users/1", `{"email":"alice2@test.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUsers_UpdateMembershipRoles(t *testing.T) {
	s := newScene(t)

	// повторная отправка тех же ролей — не 404
	rec := s.do("POST", "/users/1/sites/2", `{"roles":["collaborator"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do("POST", "/users/1/sites/2", `{"roles":["admin"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.RoleList{models.SiteRoleAdmin},
		s.store.memberships[pairKey{1, 2}].Roles)

	// несуществующая пара — 404
	rec = s.do("POST", "/users/2/sites/2", `{"roles":["admin"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
