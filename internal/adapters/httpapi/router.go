package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

// Services regroupe les services exposés par l'API. Un champ nil désactive ses routes.
type Services struct {
	Catalog   *app.CatalogService
	Watchlist *app.WatchlistService
	Settings  *app.SettingsService
	Session   *app.SessionService
	Bus       ports.EventBus
}

type Server struct {
	logger zerolog.Logger
	svc    Services
}

func NewServer(logger zerolog.Logger, svc Services) *Server {
	return &Server{logger: logger, svc: svc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		// SSE: pas de timeout global sur le flux.
		if s.svc.Bus != nil {
			r.Get("/events", s.handleEvents)
		}
		if s.svc.Watchlist != nil {
			NewWatchlistHandler(s.svc.Watchlist).Routes(r, middleware.Timeout(defaultRequestTimeout))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/openapi.json", s.handleOpenAPI)

			if s.svc.Catalog != nil {
				NewCatalogHandler(s.svc.Catalog).Routes(r)
			}
			if s.svc.Settings != nil {
				NewSettingsHandler(s.svc.Settings).Routes(r)
			}
			if s.svc.Session != nil {
				NewSessionHandler(s.svc.Session).Routes(r)
			}
		})
	})

	return r
}
