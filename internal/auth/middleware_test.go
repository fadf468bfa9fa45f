package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinco/internal/models"
)

type fakeMemberships struct {
	byUser map[uint][]models.UserSite
}

func (f *fakeMemberships) ListByUser(_ context.Context, userID uint) ([]models.UserSite, error) {
	return f.byUser[userID], nil
}

func gateFixture() (*TokenCodec, *Middleware, *fakeMemberships) {
	codec := NewTokenCodec("gate-secret-1234567890", time.Hour)
	ms := &fakeMemberships{byUser: map[uint][]models.UserSite{}}
	return codec, NewMiddleware(codec, ms, "token"), ms
}

// капасит identity, долетевшую до обработчика
func identityCapture(got **Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = IdentityFrom(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_NoCookieRequired(t *testing.T) {
	_, gate, _ := gateFixture()

	var got *Identity
	rec := httptest.NewRecorder()
	gate.Handler(identityCapture(&got)).ServeHTTP(rec, httptest.NewRequest("GET", "/comments", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, got)
}

func TestMiddleware_NoCookieOptional(t *testing.T) {
	_, gate, _ := gateFixture()

	var got *Identity
	rec := httptest.NewRecorder()
	gate.Optional().Handler(identityCapture(&got)).ServeHTTP(rec, httptest.NewRequest("GET", "/widget.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got, "optional: запрос проходит анонимным")
}

func TestMiddleware_GarbageTokenOptional(t *testing.T) {
	_, gate, _ := gateFixture()

	var got *Identity
	req := httptest.NewRequest("GET", "/widget.js", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	rec := httptest.NewRecorder()
	gate.Optional().Handler(identityCapture(&got)).ServeHTTP(rec, req)

	// ошибка проверки глотается, identity не вешается
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)
}

func TestMiddleware_GarbageTokenRequired(t *testing.T) {
	_, gate, _ := gateFixture()

	req := httptest.NewRequest("GET", "/comments", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	rec := httptest.NewRecorder()
	gate.Handler(identityCapture(new(*Identity))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_ValidTokenAttachesIdentity(t *testing.T) {
	codec, gate, ms := gateFixture()

	u := &models.User{Email: "alice@test.com", Roles: models.RoleList{models.RoleAdmin}}
	u.ID = 5
	ms.byUser[5] = []models.UserSite{{
		UserID: 5, SiteID: 2,
		Roles: models.RoleList{models.SiteRoleCollaborator},
	}}

	var got *Identity
	req := httptest.NewRequest("GET", "/comments", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: codec.Sign(u)})
	rec := httptest.NewRecorder()
	gate.Handler(identityCapture(&got)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, uint(5), got.UserID())
	require.Len(t, got.Sites, 1)
	assert.NotNil(t, got.MembershipFor(2))
	assert.Nil(t, got.MembershipFor(99))
}

// ---- гейт глобальных ролей ----

func roleReq(codec *TokenCodec, roles models.RoleList) *http.Request {
	req := httptest.NewRequest("GET", "/users", nil)
	u := &models.User{Email: "x@test.com", Roles: roles}
	u.ID = 1
	req.AddCookie(&http.Cookie{Name: "token", Value: codec.Sign(u)})
	return req
}

func TestRequireRoles_EmptyAlwaysAllows(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRoles()(identityCapture(new(*Identity))).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoles_Intersection(t *testing.T) {
	codec, gate, _ := gateFixture()

	chain := gate.Handler(RequireRoles(models.RoleAdmin)(identityCapture(new(*Identity))))

	// roles=[admin,root], required=[admin] → allow
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, roleReq(codec, models.RoleList{models.RoleAdmin, models.RoleRoot}))
	assert.Equal(t, http.StatusOK, rec.Code)

	// roles=[] → deny
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, roleReq(codec, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// roles=[commenter] → deny
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, roleReq(codec, models.RoleList{models.RoleCommenter}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoles_AnonymousDenied(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRoles(models.RoleAdmin)(identityCapture(new(*Identity))).
		ServeHTTP(rec, httptest.NewRequest("GET", "/users", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
