package auth

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"pinco/internal/models"
)

type membershipLister interface {
	ListByUser(ctx context.Context, userID uint) ([]models.UserSite, error)
}

// Middleware — гейт аутентификации: cookie → проверка токена → членства
// → Identity в контексте. В optional-режиме отсутствие или негодность
// токена не ошибка: запрос идёт дальше анонимным.
type Middleware struct {
	codec       *TokenCodec
	memberships membershipLister
	cookieName  string
	optional    bool
}

func NewMiddleware(codec *TokenCodec, memberships membershipLister, cookieName string) *Middleware {
	return &Middleware{codec: codec, memberships: memberships, cookieName: cookieName}
}

// Optional — вариант для эндпоинтов, которые обслуживают и анонимов
// (widget.js забирают и до логина).
func (m *Middleware) Optional() *Middleware {
	cp := *m
	cp.optional = true
	return &cp
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(m.cookieName)
		if err != nil || c.Value == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			models.WriteUnauthorized(w, "no token")
			return
		}

		claims, err := m.codec.Verify(c.Value)
		if err != nil {
			if m.optional {
				// осознанно глотаем: те же урлы отдаются анонимам
				next.ServeHTTP(w, r)
				return
			}
			models.WriteUnauthorized(w, "invalid token")
			return
		}

		sites, err := m.memberships.ListByUser(r.Context(), claims.UserID())
		if err != nil {
			models.WriteProblem(w, http.StatusInternalServerError,
				"Internal Server Error", "membership lookup failed", nil)
			return
		}

		id := &Identity{Claims: claims, Sites: sites}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireRoles — декларативная проверка глобальных ролей обработчика.
// Пустой список требований пропускает всех; иначе нужно пересечение
// (OR по требуемым ролям). Отказ — общий 403 без деталей.
func RequireRoles(required ...models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			id := IdentityFrom(r)
			if id == nil || len(id.Claims.Roles) == 0 || !id.Claims.Roles.Intersects(required) {
				models.WriteForbidden(w, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
