package auth

import (
	"context"
	"net/http"

	"pinco/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity — проверенный вызывающий плюс его членства по сайтам.
type Identity struct {
	Claims *TokenClaims
	Sites  []models.UserSite
}

func (id *Identity) UserID() uint { return id.Claims.UserID() }

// MembershipFor возвращает членство на сайте, если оно есть.
func (id *Identity) MembershipFor(siteID uint) *models.UserSite {
	for i := range id.Sites {
		if id.Sites[i].SiteID == siteID {
			return &id.Sites[i]
		}
	}
	return nil
}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom: nil — запрос анонимный (optional-режим гейта).
func IdentityFrom(r *http.Request) *Identity {
	v := r.Context().Value(identityKey)
	if id, ok := v.(*Identity); ok {
		return id
	}
	return nil
}
