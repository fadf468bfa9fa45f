package authapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterRoutes(r *mux.Router, h *Handler) {
	sub := r.PathPrefix("/auth").Subrouter()
	sub.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	sub.HandleFunc("/login", h.LinkLogin).Methods(http.MethodGet)
	sub.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}
