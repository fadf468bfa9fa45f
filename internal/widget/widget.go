package widget

import (
	"net/http"
	"text/template"

	"github.com/gorilla/mux"

	"pinco/internal/auth"
)

// Бутстрап виджета. Один эндпоинт на анонимов и залогиненных:
// optional-гейт оставляет identity пустой вместо отказа.
var scriptTmpl = template.Must(template.New("widget.js").Parse(`(function () {
  window.Pinco = window.Pinco || {};
  window.Pinco.apiBase = {{.APIBase | printf "%q"}};
  window.Pinco.authenticated = {{.Authenticated}};
  var s = document.createElement("script");
  s.src = window.Pinco.apiBase + "/static/pinco-widget.js";
  s.async = true;
  document.head.appendChild(s);
})();
`))

type Handler struct {
	apiBaseURL string
}

func New(apiBaseURL string) *Handler { return &Handler{apiBaseURL: apiBaseURL} }

// GET /widget.js
func (h *Handler) Script(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = scriptTmpl.Execute(w, map[string]any{
		"APIBase":       h.apiBaseURL,
		"Authenticated": auth.IdentityFrom(r) != nil,
	})
}

func RegisterRoutes(r *mux.Router, h *Handler, gate *auth.Middleware) {
	r.Handle("/widget.js", gate.Optional().Handler(http.HandlerFunc(h.Script))).Methods(http.MethodGet)
}
