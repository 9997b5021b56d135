package app

import (
	"context"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

type BrowseKind string

const (
	BrowseGenre    BrowseKind = "genre"
	BrowseCategory BrowseKind = "category"
	BrowseAZ       BrowseKind = "az"
)

// scrollThreshold: la page suivante est demandée quand il reste moins
// de scrollThreshold éléments sous le dernier élément visible.
const scrollThreshold = 6

const listingErrorMessage = "failed to load listing"

// BrowseKey identifie une liste paginée (genre, catégorie ou tri A-Z).
type BrowseKey struct {
	Kind  BrowseKind `json:"kind"`
	Query string     `json:"query"`
}

func (k BrowseKey) Valid() bool {
	switch k.Kind {
	case BrowseGenre, BrowseCategory, BrowseAZ:
		return true
	default:
		return false
	}
}

// Title est recalculé depuis la clé, jamais depuis les données.
func (k BrowseKey) Title() string {
	switch k.Kind {
	case BrowseGenre, BrowseCategory:
		return upperFirst(k.Query)
	case BrowseAZ:
		return "A-Z: " + k.Query
	default:
		return unknownValue
	}
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}

type ListState struct {
	Phase       Phase                 `json:"phase"`
	Key         BrowseKey             `json:"key"`
	Title       string                `json:"title"`
	Animes      []domain.AnimeSummary `json:"animes"`
	Page        int                   `json:"page"`
	HasNext     bool                  `json:"hasNext"`
	LoadingMore bool                  `json:"loadingMore"`
	Message     string                `json:"message,omitempty"`
}

type failedPage struct {
	page int
	base []domain.AnimeSummary
}

// ListController pagine une liste du catalogue: Load réinitialise à la page 1,
// LoadNextPage ajoute la page suivante à la suite des résultats.
type ListController struct {
	catalog *CatalogService
	logger  zerolog.Logger
	state   *StateHolder[ListState]
	fetches *fetchGroup

	// Protégé par le verrou du fetchGroup (écrit dans prepare/Commit).
	failed *failedPage
}

func NewListController(catalog *CatalogService, logger zerolog.Logger) *ListController {
	logger = logger.With().Str("component", "listing").Logger()
	return &ListController{
		catalog: catalog,
		logger:  logger,
		state:   NewStateHolder(ListState{Phase: PhaseIdle, Animes: []domain.AnimeSummary{}}),
		fetches: newFetchGroup(logger),
	}
}

func (c *ListController) State() ListState { return c.state.Get() }

func (c *ListController) Subscribe() (<-chan ListState, func()) { return c.state.Subscribe() }

// Load abandonne la liste courante et charge la page 1 de key.
// L'état passe à Loading avant le retour.
func (c *ListController) Load(key BrowseKey) {
	if !key.Valid() {
		c.fetches.Start(func() bool {
			c.failed = nil
			c.state.Set(ListState{Phase: PhaseSuccess, Key: key, Title: unknownValue, Animes: []domain.AnimeSummary{}, Page: 1})
			return true
		}, nil)
		return
	}
	c.fetches.Start(func() bool {
		c.failed = nil
		c.state.Set(ListState{Phase: PhaseLoading, Key: key, Title: key.Title(), Animes: []domain.AnimeSummary{}, Page: 1})
		return true
	}, c.runner(key, 1, nil))
}

// LoadNextPage n'agit que depuis Success avec une page suivante et aucune
// requête en cours. Renvoie true si une requête a été lancée.
func (c *ListController) LoadNextPage() bool {
	var (
		key  BrowseKey
		page int
		base []domain.AnimeSummary
	)
	run := func(ctx context.Context, gen uint64, log zerolog.Logger) {
		c.runner(key, page, base)(ctx, gen, log)
	}
	return c.fetches.Start(func() bool {
		st := c.state.Get()
		if st.Phase != PhaseSuccess || !st.HasNext || st.LoadingMore || !st.Key.Valid() {
			return false
		}
		key, page, base = st.Key, st.Page+1, st.Animes
		c.state.Update(func(s ListState) ListState {
			s.LoadingMore = true
			return s
		})
		return true
	}, run)
}

// OnScroll déclenche LoadNextPage à l'approche de la fin de la liste.
func (c *ListController) OnScroll(lastVisibleIndex, total int) bool {
	remaining := total - (lastVisibleIndex + 1)
	if remaining >= scrollThreshold {
		return false
	}
	return c.LoadNextPage()
}

// Retry relance la page qui a échoué; une page suivante repart des
// résultats détenus avant l'échec.
func (c *ListController) Retry() bool {
	var (
		retry *failedPage
		key   BrowseKey
	)
	run := func(ctx context.Context, gen uint64, log zerolog.Logger) {
		c.runner(key, retry.page, retry.base)(ctx, gen, log)
	}
	return c.fetches.Start(func() bool {
		st := c.state.Get()
		if st.Phase != PhaseError || c.failed == nil {
			return false
		}
		retry, key = c.failed, st.Key
		c.failed = nil
		c.state.Set(ListState{Phase: PhaseLoading, Key: key, Title: key.Title(), Animes: orEmpty(retry.base), Page: retry.page})
		return true
	}, run)
}

// Wait bloque jusqu'à la fin des requêtes en cours.
func (c *ListController) Wait() { c.fetches.Wait() }

func (c *ListController) Close() { c.fetches.Close() }

func (c *ListController) runner(key BrowseKey, page int, base []domain.AnimeSummary) func(context.Context, uint64, zerolog.Logger) {
	return func(ctx context.Context, gen uint64, log zerolog.Logger) {
		env, err := c.catalog.Listing(ctx, key, page)
		if ctx.Err() != nil {
			return
		}
		c.fetches.Commit(gen, func() {
			if err != nil || !env.Success {
				log.Warn().Err(err).Str("kind", string(key.Kind)).Str("query", key.Query).Int("page", page).Int("status", env.Status).Msg("listing fetch failed")
				c.failed = &failedPage{page: page, base: base}
				c.state.Set(ListState{Phase: PhaseError, Key: key, Title: key.Title(), Animes: orEmpty(base), Page: page, Message: listingErrorMessage})
				return
			}
			var data domain.PagedAnimes
			if env.Data != nil {
				data = *env.Data
			}
			merged := make([]domain.AnimeSummary, 0, len(base)+len(data.Animes))
			merged = append(merged, base...)
			merged = append(merged, data.Animes...)
			c.state.Set(ListState{
				Phase:   PhaseSuccess,
				Key:     key,
				Title:   key.Title(),
				Animes:  merged,
				Page:    page,
				HasNext: data.HasNext(),
			})
		})
	}
}
