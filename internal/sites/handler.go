package sites

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pinco/internal/models"
	"pinco/internal/repo"
)

type siteStore interface {
	Create(ctx context.Context, s *models.Site) error
	GetByID(ctx context.Context, id uint) (*models.Site, error)
	List(ctx context.Context) ([]models.Site, error)
	Update(ctx context.Context, s *models.Site) error
	Delete(ctx context.Context, id uint) error
}

type Handler struct {
	sites siteStore
}

func New(sites siteStore) *Handler { return &Handler{sites: sites} }

type siteInput struct {
	Name    string `json:"name"`
	License string `json:"license"`
	Domain  string `json:"domain"`
	URL     string `json:"url"`
	Active  *bool  `json:"active"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.sites.List(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	out := make([]models.SiteView, 0, len(rows))
	for i := range rows {
		out = append(out, models.NewSiteView(&rows[i]))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in siteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	if in.Name == "" || in.Domain == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "name and domain are required", nil)
		return
	}
	site := &models.Site{Name: in.Name, License: in.License, Domain: in.Domain, URL: in.URL, Active: true}
	if in.Active != nil {
		site.Active = *in.Active
	}
	if err := h.sites.Create(r.Context(), site); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusConflict, "Conflict", "domain already registered", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusCreated, models.NewSiteView(site))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	site, ok := h.load(w, r)
	if !ok {
		return
	}
	models.WriteJSON(w, http.StatusOK, models.NewSiteView(site))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	site, ok := h.load(w, r)
	if !ok {
		return
	}
	var in siteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid json", nil)
		return
	}
	if in.Name != "" {
		site.Name = in.Name
	}
	if in.License != "" {
		site.License = in.License
	}
	if in.Domain != "" {
		site.Domain = in.Domain
	}
	if in.URL != "" {
		site.URL = in.URL
	}
	if in.Active != nil {
		site.Active = *in.Active
	}
	if err := h.sites.Update(r.Context(), site); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusConflict, "Conflict", "domain already registered", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, models.NewSiteView(site))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := h.sites.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "site not found", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.Site, bool) {
	site, err := h.sites.GetByID(r.Context(), pathID(r))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", "site not found", nil)
			return nil, false
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
		return nil, false
	}
	return site, true
}

func pathID(r *http.Request) uint {
	id, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id)
}
