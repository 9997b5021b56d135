package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/httpjson"
)

type WatchlistHandler struct {
	watchlist *app.WatchlistService
}

func NewWatchlistHandler(watchlist *app.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

// Routes monte /watchlist; timeout s'applique à tout sauf au flux /{id}/watch.
func (h *WatchlistHandler) Routes(r chi.Router, timeout func(http.Handler) http.Handler) {
	r.Route("/watchlist", func(r chi.Router) {
		r.Get("/{id}/watch", h.watch)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", h.list)
			r.Post("/", h.add)
			r.Get("/stats", h.stats)
			r.Post("/toggle", h.toggle)
			r.Get("/{id}", h.get)
			r.Delete("/{id}", h.remove)
			r.Put("/{id}/progress", h.progress)
			r.Put("/{id}/status", h.status)
		})
	})
}

// watch diffuse en SSE l'état d'une entrée: "entry" à chaque changement,
// "removed" quand elle n'est pas (ou plus) dans la watchlist.
func (h *WatchlistHandler) watch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	updates := h.watchlist.Watch(r.Context(), id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-updates:
			if !ok {
				return
			}
			if e, present := v.Get(); present {
				b, err := json.Marshal(e)
				if err != nil {
					return
				}
				fmt.Fprintf(w, "event: entry\ndata: %s\n\n", b)
			} else {
				b, _ := json.Marshal(map[string]string{"animeId": id})
				fmt.Fprintf(w, "event: removed\ndata: %s\n\n", b)
			}
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}

func (h *WatchlistHandler) list(w http.ResponseWriter, r *http.Request) {
	var filter *domain.WatchStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, err := domain.ParseWatchStatus(raw)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = &st
	}
	entries, err := h.watchlist.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, app.MatchTitle(entries, r.URL.Query().Get("q")))
}

func (h *WatchlistHandler) add(w http.ResponseWriter, r *http.Request) {
	var req app.AddRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status != "" {
		st, err := domain.ParseWatchStatus(string(req.Status))
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Status = st
	}
	e, err := h.watchlist.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, e)
}

func (h *WatchlistHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.watchlist.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

func (h *WatchlistHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var req app.AddRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := h.watchlist.Toggle(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"animeId": strings.TrimSpace(req.AnimeID), "inWatchlist": in})
}

func (h *WatchlistHandler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.watchlist.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, e)
}

func (h *WatchlistHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.watchlist.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type progressRequest struct {
	Episode *int `json:"episode"`
}

func (h *WatchlistHandler) progress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Episode == nil {
		httpjson.WriteError(w, http.StatusBadRequest, "missing episode")
		return
	}
	e, err := h.watchlist.UpdateProgress(r.Context(), chi.URLParam(r, "id"), *req.Episode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, e)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *WatchlistHandler) status(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := domain.ParseWatchStatus(req.Status)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := h.watchlist.UpdateStatus(r.Context(), chi.URLParam(r, "id"), st)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, e)
}
