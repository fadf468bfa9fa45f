package comments

import (
	"net/http"

	"github.com/gorilla/mux"

	"pinco/internal/auth"
	"pinco/internal/models"
	"pinco/internal/tenant"
)

// RegisterRoutes: все маршруты виджета идут через гейт аутентификации и
// тенант-гейт; сквозной админский список — только через роль root.
func RegisterRoutes(r *mux.Router, h *Handler, gate *auth.Middleware, site *tenant.Resolver) {
	sub := r.PathPrefix("/comments").Subrouter()
	sub.Use(gate.Handler, site.Handler)

	sub.HandleFunc("", h.List).Methods(http.MethodGet)
	sub.HandleFunc("", h.Create).Methods(http.MethodPost)
	sub.HandleFunc("/view-all", h.ViewAll).Methods(http.MethodGet)
	sub.HandleFunc("/{id:[0-9]+}", h.Update).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/replies", h.CreateReply).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/resolve", h.Resolve).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/view", h.View).Methods(http.MethodGet)
	sub.HandleFunc("/{id:[0-9]+}/unview", h.Unview).Methods(http.MethodGet)

	adm := r.PathPrefix("/admin/comments").Subrouter()
	adm.Use(gate.Handler, auth.RequireRoles(models.RoleRoot))
	adm.HandleFunc("", h.ListAll).Methods(http.MethodGet)
}
