package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/httpjson"
)

// Paramètres de /catalog/search qui ne sont pas des filtres.
var searchReserved = map[string]bool{"q": true, "page": true}

type CatalogHandler struct {
	catalog *app.CatalogService
}

func NewCatalogHandler(catalog *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Routes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/home", h.home)
		r.Get("/search", h.search)
		r.Get("/suggestions", h.suggestions)
		r.Get("/schedule", h.schedule)
		r.Get("/genre/{name}", h.listing(app.BrowseGenre))
		r.Get("/category/{name}", h.listing(app.BrowseCategory))
		r.Get("/az/{name}", h.listing(app.BrowseAZ))

		r.Get("/anime/{id}", h.details)
		r.Get("/anime/{id}/episodes", h.episodes)
		r.Get("/anime/{id}/characters", h.characters)
		r.Get("/anime/{id}/next-episode", h.nextEpisode)

		// Les ids d'épisode contiennent "?ep=": ils passent en paramètre de requête.
		r.Get("/episode/servers", h.servers)
		r.Get("/episode/sources", h.sources)
	})
}

// writeEnvelope renvoie l'enveloppe telle quelle. Un échec de transport
// devient 502; une enveloppe success=false garde son statut amont.
func writeEnvelope[T any](w http.ResponseWriter, r *http.Request, env domain.Envelope[T], err error) {
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("catalog upstream failed")
		httpjson.Write(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "code": app.CodeUpstream})
		return
	}
	status := http.StatusOK
	if !env.Success {
		status = http.StatusBadGateway
		if env.Status >= 400 && env.Status < 600 {
			status = env.Status
		}
	}
	httpjson.Write(w, status, env)
}

func requireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing "+key)
		return "", false
	}
	return v, true
}

func (h *CatalogHandler) home(w http.ResponseWriter, r *http.Request) {
	env, err := h.catalog.Home(r.Context())
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) search(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r, "q")
	if !ok {
		return
	}
	filters := map[string]string{}
	for k, vs := range r.URL.Query() {
		if searchReserved[k] || len(vs) == 0 || strings.TrimSpace(vs[0]) == "" {
			continue
		}
		filters[k] = vs[0]
	}
	env, err := h.catalog.Search(r.Context(), q, pageParam(r), filters)
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	q, ok := requireQuery(w, r, "q")
	if !ok {
		return
	}
	env, err := h.catalog.Suggestions(r.Context(), q)
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) schedule(w http.ResponseWriter, r *http.Request) {
	date, ok := requireQuery(w, r, "date")
	if !ok {
		return
	}
	env, err := h.catalog.Schedule(r.Context(), date)
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) listing(kind app.BrowseKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := app.BrowseKey{Kind: kind, Query: chi.URLParam(r, "name")}
		env, err := h.catalog.Listing(r.Context(), key, pageParam(r))
		writeEnvelope(w, r, env, err)
	}
}

func (h *CatalogHandler) details(w http.ResponseWriter, r *http.Request) {
	env, err := h.catalog.Details(r.Context(), chi.URLParam(r, "id"))
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) episodes(w http.ResponseWriter, r *http.Request) {
	env, err := h.catalog.Episodes(r.Context(), chi.URLParam(r, "id"))
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) characters(w http.ResponseWriter, r *http.Request) {
	env, err := h.catalog.Characters(r.Context(), chi.URLParam(r, "id"))
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) nextEpisode(w http.ResponseWriter, r *http.Request) {
	env, err := h.catalog.NextEpisode(r.Context(), chi.URLParam(r, "id"))
	writeEnvelope(w, r, env, err)
}

func (h *CatalogHandler) servers(w http.ResponseWriter, r *http.Request) {
	id, ok := requireQuery(w, r, "id")
	if !ok {
		return
	}
	env, err := h.catalog.Servers(r.Context(), id)
	writeEnvelope(w, r, env, err)
}

type sourcesResponse struct {
	Server   string                                    `json:"server"`
	Category string                                    `json:"category"`
	Sources  domain.Envelope[domain.StreamingResponse] `json:"sources"`
}

// sources résout le flux avec repli de serveur (hd-1 → hd-2).
func (h *CatalogHandler) sources(w http.ResponseWriter, r *http.Request) {
	id, ok := requireQuery(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	def := domain.DefaultPreferences()
	server := strings.TrimSpace(q.Get("server"))
	if server == "" {
		server = def.PreferredServer
	}
	category := strings.TrimSpace(q.Get("category"))
	if category == "" {
		category = def.PreferredCategory
	}

	env, used, err := h.catalog.StreamWithFallback(r.Context(), id, server, category)
	if err != nil && !env.Success {
		writeEnvelope(w, r, env, err)
		return
	}
	status := http.StatusOK
	if !env.OK() || env.Data.Link == nil {
		status = http.StatusBadGateway
	}
	httpjson.Write(w, status, sourcesResponse{Server: used, Category: category, Sources: env})
}
