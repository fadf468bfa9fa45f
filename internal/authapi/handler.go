package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"pinco/internal/auth"
	"pinco/internal/logs"
	"pinco/internal/models"
	"pinco/internal/repo"
)

type userStore interface {
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
}

type membershipStore interface {
	ListByUser(ctx context.Context, userID uint) ([]models.UserSite, error)
}

type Handler struct {
	users       userStore
	memberships membershipStore
	codec       *auth.TokenCodec
	secrets     *auth.SecretTokens
	invites     *auth.Invites
	cookieName  string
}

func New(users userStore, memberships membershipStore, codec *auth.TokenCodec,
	secrets *auth.SecretTokens, invites *auth.Invites, cookieName string) *Handler {
	return &Handler{
		users:       users,
		memberships: memberships,
		codec:       codec,
		secrets:     secrets,
		invites:     invites,
		cookieName:  cookieName,
	}
}

// setAuthCookie: HttpOnly+Secure+SameSite=None — cookie ходит из чужих
// origin'ов (виджет встраивается на сторонние сайты).
func (h *Handler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// POST /auth/login {email, password}
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	u, err := h.users.GetActiveByEmail(r.Context(), in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteUnauthorized(w, "invalid credentials")
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		models.WriteUnauthorized(w, "invalid credentials")
		return
	}
	h.setAuthCookie(w, h.codec.Sign(u))
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

// GET /auth/login?invite=<tok> | ?token=<secret>
// Обе ссылки приходят из писем, поэтому GET с редиректом.
func (h *Handler) LinkLogin(w http.ResponseWriter, r *http.Request) {
	if inv := r.URL.Query().Get("invite"); inv != "" {
		h.inviteLogin(w, r, inv)
		return
	}
	if secret := r.URL.Query().Get("token"); secret != "" {
		h.secretLogin(w, r, secret)
		return
	}
	models.WriteUnauthorized(w, "no token")
}

func (h *Handler) inviteLogin(w http.ResponseWriter, r *http.Request, raw string) {
	m, u, err := h.invites.Validate(r.Context(), raw)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidInvite) {
			models.WriteUnauthorized(w, "invalid invite token")
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	// инвайт одноразовый: код гасится при принятии
	if err := h.invites.Consume(r.Context(), m.UserID, m.SiteID); err != nil {
		logs.Logger.Errorf("invite consume: %v", err)
	}
	h.setAuthCookie(w, h.codec.Sign(u))
	http.Redirect(w, r, m.Site.URL, http.StatusFound)
}

func (h *Handler) secretLogin(w http.ResponseWriter, r *http.Request, secret string) {
	u, err := h.secrets.Validate(r.Context(), secret)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	if u == nil {
		models.WriteUnauthorized(w, "invalid token")
		return
	}
	h.setAuthCookie(w, h.codec.Sign(u))

	// ведём на первый из сайтов пользователя, если он есть
	sites, err := h.memberships.ListByUser(r.Context(), u.ID)
	if err == nil && len(sites) > 0 && sites[0].Site.URL != "" {
		http.Redirect(w, r, sites[0].Site.URL, http.StatusFound)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearAuthCookie(w)
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
