package comments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pinco/internal/auth"
	"pinco/internal/logs"
	"pinco/internal/models"
	"pinco/internal/notify"
	"pinco/internal/repo"
	"pinco/internal/tenant"
)

type commentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	ListBySite(ctx context.Context, siteID uint) ([]models.Comment, error)
	ListAll(ctx context.Context) ([]models.Comment, error)
	GetForSite(ctx context.Context, id, siteID uint) (*models.Comment, error)
	Update(ctx context.Context, c *models.Comment) error
	CreateReply(ctx context.Context, r *models.Reply) error
	MarkViewed(ctx context.Context, commentID, userID uint) error
	Unview(ctx context.Context, commentID, userID uint) error
	MarkAllViewed(ctx context.Context, siteID, userID uint) error
}

type mentionUsers interface {
	GetActiveByUsernames(ctx context.Context, names []string) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

type membershipGetter interface {
	Get(ctx context.Context, userID, siteID uint) (*models.UserSite, error)
}

type screenshotSaver interface {
	Save(dataURL string) (string, error)
}

type publisher interface {
	Publish(ev any)
}

type Handler struct {
	comments    commentStore
	users       mentionUsers
	memberships membershipGetter
	screenshots screenshotSaver
	events      publisher
}

func New(comments commentStore, users mentionUsers, memberships membershipGetter,
	screenshots screenshotSaver, events publisher) *Handler {
	return &Handler{
		comments:    comments,
		users:       users,
		memberships: memberships,
		screenshots: screenshots,
		events:      events,
	}
}

// GET /comments — комментарии сайта, резолвнутого тенант-гейтом.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)
	rows, err := h.comments.ListBySite(r.Context(), site.ID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	out := make([]models.CommentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, models.NewCommentResponse(&rows[i], id.UserID()))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

// GET /admin/comments — сквозной список по всем сайтам (root).
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.comments.ListAll(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	out := make([]models.CommentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, models.NewCommentResponse(&rows[i], 0))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

type commentInput struct {
	URL        string   `json:"url"`
	Text       string   `json:"text"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Resolved   *bool    `json:"resolved"`
	Screenshot string   `json:"screenshot"` // data-URL, опционально
}

// POST /comments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)

	var in commentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	if in.URL == "" || in.Text == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "url and text are required", nil)
		return
	}

	c := &models.Comment{
		SiteID: site.ID,
		UserID: id.UserID(),
		URL:    in.URL,
		Text:   in.Text,
	}
	if in.X != nil {
		c.X = *in.X
	}
	if in.Y != nil {
		c.Y = *in.Y
	}
	if in.Screenshot != "" {
		url, err := h.screenshots.Save(in.Screenshot)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "bad screenshot", nil)
			return
		}
		c.Screenshot = &url
	}
	if err := h.comments.Create(r.Context(), c); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	// автор сразу «видел» свой комментарий
	_ = h.comments.MarkViewed(r.Context(), c.ID, id.UserID())

	h.emitMentions(r, site, id, in.URL, in.Text)

	loaded, err := h.comments.GetForSite(r.Context(), c.ID, site.ID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusCreated, models.NewCommentResponse(loaded, id.UserID()))
}

// POST /comments/{id} — правка текста/позиции/resolved.
// Разрешено автору либо сайтовому админу.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)

	c, ok := h.loadForSite(w, r, site.ID)
	if !ok {
		return
	}
	if !canEdit(c, id, site.ID) {
		models.WriteForbidden(w, "not the author")
		return
	}

	var in commentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	if in.Text != "" {
		c.Text = in.Text
	}
	// (0,0) — валидная позиция, отсутствие поля отличаем по nil
	if in.X != nil {
		c.X = *in.X
	}
	if in.Y != nil {
		c.Y = *in.Y
	}
	if in.Resolved != nil {
		c.Resolved = *in.Resolved
	}
	if err := h.comments.Update(r.Context(), c); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, models.NewCommentResponse(c, id.UserID()))
}

// POST /comments/{id}/resolve — переключатель.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)
	c, ok := h.loadForSite(w, r, site.ID)
	if !ok {
		return
	}
	c.Resolved = !c.Resolved
	if err := h.comments.Update(r.Context(), c); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, models.NewCommentResponse(c, id.UserID()))
}

type replyInput struct {
	Text string `json:"text"`
}

// POST /comments/{id}/replies
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)
	c, ok := h.loadForSite(w, r, site.ID)
	if !ok {
		return
	}
	var in replyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Text == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "text is required", nil)
		return
	}
	reply := &models.Reply{CommentID: c.ID, UserID: id.UserID(), Text: in.Text}
	if err := h.comments.CreateReply(r.Context(), reply); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	h.emitMentions(r, site, id, c.URL, in.Text)
	models.WriteJSON(w, http.StatusCreated, map[string]any{"id": reply.ID, "text": reply.Text})
}

// GET /comments/{id}/view | /unview — отметки просмотра; идемпотентны.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)
	c, ok := h.loadForSite(w, r, site.ID)
	if !ok {
		return
	}
	if err := h.comments.MarkViewed(r.Context(), c.ID, id.UserID()); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "viewed"})
}

func (h *Handler) Unview(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)
	c, ok := h.loadForSite(w, r, site.ID)
	if !ok {
		return
	}
	if err := h.comments.Unview(r.Context(), c.ID, id.UserID()); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "unviewed"})
}

// GET /comments/view-all
func (h *Handler) ViewAll(w http.ResponseWriter, r *http.Request) {
	site := tenant.SiteFrom(r)
	id := auth.IdentityFrom(r)
	if err := h.comments.MarkAllViewed(r.Context(), site.ID, id.UserID()); err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "all viewed"})
}

// emitMentions публикует событие на каждого активного упомянутого
// пользователя, состоящего на этом сайте. Упоминание не-участника молча
// пропускается: текст комментария не должен уходить за пределы сайта.
func (h *Handler) emitMentions(r *http.Request, site *models.Site, id *auth.Identity, pageURL, text string) {
	mentioned, err := notify.ResolveMentions(r.Context(), h.users, text)
	if err != nil {
		logs.Logger.Errorf("mention resolve: %v", err)
		return
	}
	if len(mentioned) == 0 {
		return
	}
	author, err := h.users.GetByID(r.Context(), id.UserID())
	if err != nil {
		logs.Logger.Errorf("mention author load: %v", err)
		return
	}
	for _, u := range mentioned {
		if u.ID == author.ID {
			continue
		}
		if _, err := h.memberships.Get(r.Context(), u.ID, site.ID); err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				logs.Logger.Errorf("mention membership check: %v", err)
			}
			continue
		}
		h.events.Publish(notify.UserMentioned{
			User:    u,
			Author:  *author,
			Site:    *site,
			PageURL: pageURL,
			Text:    text,
		})
	}
}

func canEdit(c *models.Comment, id *auth.Identity, siteID uint) bool {
	if c.UserID == id.UserID() {
		return true
	}
	m := id.MembershipFor(siteID)
	return m != nil && m.Roles.Contains(models.SiteRoleAdmin)
}

func (h *Handler) loadForSite(w http.ResponseWriter, r *http.Request, siteID uint) (*models.Comment, bool) {
	cid, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	c, err := h.comments.GetForSite(r.Context(), uint(cid), siteID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "comment not found", nil)
			return nil, false
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return nil, false
	}
	return c, true
}
