package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"pinco/internal/auth"
	"pinco/internal/logs"
	"pinco/internal/models"
	"pinco/internal/notify"
	"pinco/internal/repo"
)

type userStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id, actorID uint) error
}

type membershipStore interface {
	Create(ctx context.Context, m *models.UserSite) error
	Get(ctx context.Context, userID, siteID uint) (*models.UserSite, error)
	ListByUser(ctx context.Context, userID uint) ([]models.UserSite, error)
	UpdateRoles(ctx context.Context, userID, siteID uint, roles models.RoleList) error
	Delete(ctx context.Context, userID, siteID uint) error
}

type siteStore interface {
	GetByID(ctx context.Context, id uint) (*models.Site, error)
}

type publisher interface {
	Publish(ev any)
}

type Handler struct {
	users       userStore
	memberships membershipStore
	sites       siteStore
	secrets     *auth.SecretTokens
	invites     *auth.Invites
	events      publisher
	apiBaseURL  string
}

func New(users userStore, memberships membershipStore, sites siteStore,
	secrets *auth.SecretTokens, invites *auth.Invites, events publisher, apiBaseURL string) *Handler {
	return &Handler{
		users:       users,
		memberships: memberships,
		sites:       sites,
		secrets:     secrets,
		invites:     invites,
		events:      events,
		apiBaseURL:  apiBaseURL,
	}
}

// ---------- CRUD ----------

type userInput struct {
	Email    string          `json:"email"`
	Username string          `json:"username"`
	Password string          `json:"password"`
	Roles    models.RoleList `json:"roles"`
	Active   *bool           `json:"active"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.users.List(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	out := make([]models.UserView, 0, len(rows))
	for i := range rows {
		out = append(out, models.NewUserView(&rows[i]))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	if in.Email == "" || in.Username == "" || in.Password == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request",
			"email, username and password are required", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	u := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Active:       true,
		Roles:        in.Roles,
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusConflict, "Conflict", "email or username taken", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusCreated, models.NewUserView(u))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	models.WriteJSON(w, http.StatusOK, models.NewUserView(u))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	var in userInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Username != "" {
		u.Username = in.Username
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
			return
		}
		u.PasswordHash = string(hash)
	}
	if in.Roles != nil {
		u.Roles = in.Roles
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := h.users.Update(r.Context(), u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusConflict, "Conflict", "email or username taken", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, models.NewUserView(u))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r)
	err := h.users.Delete(r.Context(), pathID(r, "id"), actor.UserID())
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, repo.ErrSelfDelete):
		models.WriteForbidden(w, "cannot delete own account")
	case errors.Is(err, repo.ErrHasContent):
		models.WriteProblem(w, http.StatusConflict, "Conflict", "user still referenced by content", nil)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "user not found", nil)
	default:
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
	}
}

// ---------- секрет для входа по ссылке ----------

// POST /users/{id}/secret — перевыпуск; прежний секрет затирается.
func (h *Handler) IssueSecret(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	secret, err := h.secrets.Issue(r.Context(), u.ID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	link := fmt.Sprintf("%s/auth/login?token=%s", h.apiBaseURL, secret)
	models.WriteJSON(w, http.StatusOK, map[string]string{"secret": secret, "login_url": link})
}

func (h *Handler) RevokeSecret(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.secrets.Revoke(r.Context(), u.ID); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- членства и приглашения ----------

type membershipInput struct {
	SiteID     uint            `json:"site_id"`
	Roles      models.RoleList `json:"roles"`
	SendInvite bool            `json:"send_invite"`
}

func (h *Handler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	rows, err := h.memberships.ListByUser(r.Context(), u.ID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	out := make([]models.MembershipView, 0, len(rows))
	for i := range rows {
		out = append(out, models.NewMembershipView(&rows[i]))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

// AddToSite создаёт членство; при send_invite выдаёт инвайт и публикует
// событие {user, site, invite_token} для почтового консьюмера.
func (h *Handler) AddToSite(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	var in membershipInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	site, err := h.sites.GetByID(r.Context(), in.SiteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "site not found", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	roles := in.Roles
	if len(roles) == 0 {
		roles = models.RoleList{models.SiteRoleCollaborator}
	}
	m := &models.UserSite{UserID: u.ID, SiteID: site.ID, Roles: roles}
	if err := h.memberships.Create(r.Context(), m); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusConflict, "Conflict", "user already connected to site", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}

	if in.SendInvite {
		h.emitInvite(r, u, site)
	}
	m.Site = *site
	models.WriteJSON(w, http.StatusCreated, models.NewMembershipView(m))
}

func (h *Handler) UpdateMembership(w http.ResponseWriter, r *http.Request) {
	var in membershipInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	err := h.memberships.UpdateRoles(r.Context(), pathID(r, "id"), pathID(r, "siteID"), in.Roles)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "membership not found", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveFromSite(w http.ResponseWriter, r *http.Request) {
	err := h.memberships.Delete(r.Context(), pathID(r, "id"), pathID(r, "siteID"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "membership not found", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /users/{id}/sites/{siteID}/invite — повторная отправка.
func (h *Handler) ResendInvite(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	site, err := h.sites.GetByID(r.Context(), pathID(r, "siteID"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "site not found", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	if _, err := h.memberships.Get(r.Context(), u.ID, site.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "membership not found", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	h.emitInvite(r, u, site)
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "invite sent"})
}

// DELETE /users/{id}/sites/{siteID}/invite — отзыв; идемпотентен.
func (h *Handler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	if err := h.invites.Revoke(r.Context(), pathID(r, "id"), pathID(r, "siteID")); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) emitInvite(r *http.Request, u *models.User, site *models.Site) {
	tok, err := h.invites.IssueToken(r.Context(), u.ID, site.ID)
	if err != nil {
		logs.Logger.Errorf("invite issue user=%d site=%d: %v", u.ID, site.ID, err)
		return
	}
	h.events.Publish(notify.UserInvited{User: *u, Site: *site, InviteToken: tok})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := h.users.GetByID(r.Context(), pathID(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "user not found", nil)
			return nil, false
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return nil, false
	}
	return u, true
}

func pathID(r *http.Request, key string) uint {
	id, _ := strconv.ParseUint(mux.Vars(r)[key], 10, 64)
	return uint(id)
}
