package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

const detailsErrorMessage = "Failed to load details"

// Appels secondaires simultanés au plus, par écran de détails.
const secondaryFetchLimit = 2

var errNoData = errors.New("no data")

type DetailsState struct {
	Phase       Phase                  `json:"phase"`
	AnimeID     string                 `json:"animeId"`
	Details     *AnimeDetails          `json:"details,omitempty"`
	Episodes    []domain.Episode       `json:"episodes"`
	Characters  []domain.CharacterItem `json:"characters"`
	NextEpisode mo.Option[string]      `json:"nextEpisodeTime"`
	InWatchlist bool                   `json:"inWatchlist"`
	Message     string                 `json:"message,omitempty"`
}

// DetailsController charge les détails (critique) puis, en parallèle,
// épisodes, personnages et prochain épisode (secondaires).
type DetailsController struct {
	catalog   *CatalogService
	watchlist *WatchlistService
	logger    zerolog.Logger
	state     *StateHolder[DetailsState]
	fetches   *fetchGroup
}

func NewDetailsController(catalog *CatalogService, watchlist *WatchlistService, logger zerolog.Logger) *DetailsController {
	logger = logger.With().Str("component", "details").Logger()
	return &DetailsController{
		catalog:   catalog,
		watchlist: watchlist,
		logger:    logger,
		state:     NewStateHolder(DetailsState{Phase: PhaseIdle}),
		fetches:   newFetchGroup(logger),
	}
}

func (c *DetailsController) State() DetailsState { return c.state.Get() }

func (c *DetailsController) Subscribe() (<-chan DetailsState, func()) { return c.state.Subscribe() }

// Load accepte un id d'épisode ("slug?ep=123"): seule la partie avant "?" est gardée.
func (c *DetailsController) Load(animeID string) {
	id, _, _ := strings.Cut(strings.TrimSpace(animeID), "?")
	c.fetches.Start(func() bool {
		c.state.Set(DetailsState{Phase: PhaseLoading, AnimeID: id})
		return true
	}, func(ctx context.Context, gen uint64, log zerolog.Logger) {
		c.load(ctx, gen, log, id)
	})
}

func (c *DetailsController) Retry() {
	if id := c.state.Get().AnimeID; id != "" {
		c.Load(id)
	}
}

func (c *DetailsController) Wait() { c.fetches.Wait() }

func (c *DetailsController) Close() { c.fetches.Close() }

// merge n'applique fn que si l'état appartient toujours à ce chargement.
func (c *DetailsController) merge(gen uint64, id string, fn func(DetailsState) DetailsState) {
	c.fetches.Commit(gen, func() {
		c.state.Update(func(s DetailsState) DetailsState {
			if s.AnimeID != id {
				return s
			}
			return fn(s)
		})
	})
}

func (c *DetailsController) load(ctx context.Context, gen uint64, log zerolog.Logger, id string) {
	RunBestEffort(ctx, log, "watchlist-membership", func(ctx context.Context) error {
		in, err := c.watchlist.IsInWatchlist(ctx, id)
		if err != nil {
			return err
		}
		c.merge(gen, id, func(s DetailsState) DetailsState {
			s.InWatchlist = in
			return s
		})
		return nil
	})

	env, err := c.catalog.Details(ctx, id)
	if ctx.Err() != nil {
		return
	}
	if err != nil || !env.OK() {
		log.Warn().Err(err).Str("anime", id).Int("status", env.Status).Msg("details fetch failed")
		c.merge(gen, id, func(s DetailsState) DetailsState {
			return DetailsState{Phase: PhaseError, AnimeID: id, InWatchlist: s.InWatchlist, Message: detailsErrorMessage}
		})
		return
	}

	details := *env.Data
	c.merge(gen, id, func(s DetailsState) DetailsState {
		return DetailsState{
			Phase:       PhaseSuccess,
			AnimeID:     id,
			Details:     &details,
			Episodes:    []domain.Episode{},
			Characters:  []domain.CharacterItem{},
			NextEpisode: mo.None[string](),
			InWatchlist: s.InWatchlist,
		}
	})

	// Tâches secondaires: un échec est journalisé et n'affecte pas l'état Success.
	tasks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"episodes", func(ctx context.Context) error {
			env, err := c.catalog.Episodes(ctx, id)
			if err != nil {
				return err
			}
			if !env.OK() {
				return errNoData
			}
			c.merge(gen, id, func(s DetailsState) DetailsState {
				if s.Phase == PhaseSuccess {
					s.Episodes = env.Data.Episodes
				}
				return s
			})
			return nil
		}},
		{"characters", func(ctx context.Context) error {
			env, err := c.catalog.Characters(ctx, id)
			if err != nil {
				return err
			}
			if !env.OK() {
				return errNoData
			}
			c.merge(gen, id, func(s DetailsState) DetailsState {
				if s.Phase == PhaseSuccess {
					s.Characters = orEmpty(env.Data.Response)
				}
				return s
			})
			return nil
		}},
		{"next-episode", func(ctx context.Context) error {
			env, err := c.catalog.NextEpisode(ctx, id)
			if err != nil {
				return err
			}
			if !env.OK() {
				return errNoData
			}
			c.merge(gen, id, func(s DetailsState) DetailsState {
				if s.Phase == PhaseSuccess && env.Data.Time != "" {
					s.NextEpisode = mo.Some(env.Data.Time)
				}
				return s
			})
			return nil
		}},
	}

	// Les tâches ne renvoient jamais d'erreur au groupe: l'échec de l'une
	// n'annule pas les autres. Le groupe borne le nombre d'appels simultanés.
	results := make([]BestEffortResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(secondaryFetchLimit)
	for i, task := range tasks {
		g.Go(func() error {
			results[i] = RunBestEffort(gctx, log, task.name, task.fn)
			return nil
		})
	}
	_ = g.Wait()

	failed := lo.CountBy(results, func(r BestEffortResult) bool { return !r.OK() })
	log.Debug().Str("anime", id).Int("tasks", len(results)).Int("failed", failed).Msg("secondary fetches done")
}

// totalEpisodes: épisodes chargés, sinon le compteur "sub" des détails, sinon inconnu.
func totalEpisodes(s DetailsState) *int {
	if n := len(s.Episodes); n > 0 {
		return &n
	}
	if s.Details != nil && s.Details.Info.Stats.Episodes.Sub != nil {
		n := *s.Details.Info.Stats.Episodes.Sub
		return &n
	}
	return nil
}

// ToggleWatchlist ajoute ou retire l'anime affiché. Renvoie l'appartenance finale.
func (c *DetailsController) ToggleWatchlist(ctx context.Context) (bool, error) {
	st := c.state.Get()
	if st.Phase != PhaseSuccess || st.Details == nil {
		return false, ErrDetailsNotLoaded
	}
	in, err := c.watchlist.Toggle(ctx, AddRequest{
		AnimeID:       st.AnimeID,
		Title:         lo.CoalesceOrEmpty(st.Details.Info.Name, st.AnimeID),
		PosterURL:     st.Details.Info.Poster,
		TotalEpisodes: totalEpisodes(st),
		Type:          st.Details.Info.Stats.Type,
	})
	if err != nil {
		return st.InWatchlist, err
	}
	c.state.Update(func(s DetailsState) DetailsState {
		if s.AnimeID == st.AnimeID {
			s.InWatchlist = in
		}
		return s
	})
	return in, nil
}
