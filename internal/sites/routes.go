package sites

import (
	"net/http"

	"github.com/gorilla/mux"

	"pinco/internal/auth"
	"pinco/internal/models"
)

// RegisterRoutes: администрирование сайтов доступно только root.
func RegisterRoutes(r *mux.Router, h *Handler, gate *auth.Middleware) {
	sub := r.PathPrefix("/sites").Subrouter()
	sub.Use(gate.Handler, auth.RequireRoles(models.RoleRoot))
	sub.HandleFunc("", h.List).Methods(http.MethodGet)
	sub.HandleFunc("", h.Create).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	sub.HandleFunc("/{id:[0-9]+}", h.Update).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
}
