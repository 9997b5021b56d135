package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/httpjson"
)

type SessionHandler struct {
	session *app.SessionService
}

func NewSessionHandler(session *app.SessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/session", h.current)
	r.Post("/session", h.signIn)
	r.Delete("/session", h.signOut)
}

type sessionResponse struct {
	SignedIn bool         `json:"signedIn"`
	User     *domain.User `json:"user,omitempty"`
}

func (h *SessionHandler) current(w http.ResponseWriter, r *http.Request) {
	u, ok, err := h.session.Current(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !ok {
		httpjson.Write(w, http.StatusOK, sessionResponse{})
		return
	}
	httpjson.Write(w, http.StatusOK, sessionResponse{SignedIn: true, User: &u})
}

func (h *SessionHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var u domain.User
	if !decodeJSON(w, r, &u) {
		return
	}
	saved, err := h.session.SignIn(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sessionResponse{SignedIn: true, User: &saved})
}

func (h *SessionHandler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SignOut(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
