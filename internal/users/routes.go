package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"pinco/internal/auth"
	"pinco/internal/models"
)

// RegisterRoutes: администрирование пользователей — root и admin.
func RegisterRoutes(r *mux.Router, h *Handler, gate *auth.Middleware) {
	sub := r.PathPrefix("/users").Subrouter()
	sub.Use(gate.Handler, auth.RequireRoles(models.RoleRoot, models.RoleAdmin))

	sub.HandleFunc("", h.List).Methods(http.MethodGet)
	sub.HandleFunc("", h.Create).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	sub.HandleFunc("/{id:[0-9]+}", h.Update).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)

	sub.HandleFunc("/{id:[0-9]+}/secret", h.IssueSecret).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/secret", h.RevokeSecret).Methods(http.MethodDelete)

	sub.HandleFunc("/{id:[0-9]+}/sites", h.ListMemberships).Methods(http.MethodGet)
	sub.HandleFunc("/{id:[0-9]+}/sites", h.AddToSite).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/sites/{siteID:[0-9]+}", h.UpdateMembership).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/sites/{siteID:[0-9]+}", h.RemoveFromSite).Methods(http.MethodDelete)
	sub.HandleFunc("/{id:[0-9]+}/sites/{siteID:[0-9]+}/invite", h.ResendInvite).Methods(http.MethodPost)
	sub.HandleFunc("/{id:[0-9]+}/sites/{siteID:[0-9]+}/invite", h.RevokeInvite).Methods(http.MethodDelete)
}
