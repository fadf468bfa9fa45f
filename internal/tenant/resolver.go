package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"pinco/internal/auth"
	"pinco/internal/models"
	"pinco/internal/repo"
)

type ctxKey string

const siteKey ctxKey = "site"

type siteResolver interface {
	GetActiveByDomain(ctx context.Context, domain string) (*models.Site, error)
}

// Resolver сопоставляет Origin запроса зарегистрированному сайту и
// требует членства вызывающего с правом коллаборатора. Гейт подразумевает
// аутентификацию, даже если гейт аутентификации был optional.
type Resolver struct {
	sites siteResolver
}

func NewResolver(sites siteResolver) *Resolver { return &Resolver{sites: sites} }

// originHost достаёт hostname из Origin (или Referer). Порты, схемы и
// пути отбрасываются; никакой www/поддоменной нормализации нет —
// совпадение строго с тем, что зарегистрировано.
func originHost(r *http.Request) string {
	raw := r.Header.Get("Origin")
	if raw == "" {
		raw = r.Header.Get("Referer")
	}
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (rs *Resolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := originHost(r)
		if host == "" {
			models.WriteForbidden(w, "origin not provided")
			return
		}

		site, err := rs.sites.GetActiveByDomain(r.Context(), host)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				// неактивный сайт неотличим от незарегистрированного
				models.WriteForbidden(w, "invalid or inactive site")
				return
			}
			models.WriteProblem(w, http.StatusInternalServerError,
				"Internal Server Error", "site lookup failed", nil)
			return
		}

		id := auth.IdentityFrom(r)
		if id == nil {
			models.WriteForbidden(w, "user does not have access to this site")
			return
		}
		m := id.MembershipFor(site.ID)
		if m == nil || !m.CanCollaborate() {
			models.WriteForbidden(w, "user does not have access to this site")
			return
		}

		next.ServeHTTP(w, r.WithContext(withSite(r.Context(), site)))
	})
}

func withSite(ctx context.Context, s *models.Site) context.Context {
	return context.WithValue(ctx, siteKey, s)
}

// SiteFrom — сайт, резолвнутый гейтом; nil вне тенантных маршрутов.
func SiteFrom(r *http.Request) *models.Site {
	v := r.Context().Value(siteKey)
	if s, ok := v.(*models.Site); ok {
		return s
	}
	return nil
}
