package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

const DefaultSearchDebounce = 800 * time.Millisecond

const noResultsMessage = "No results found"

type SearchState struct {
	Phase   Phase                 `json:"phase"`
	Query   string                `json:"query,omitempty"`
	Filters map[string]string     `json:"filters,omitempty"`
	Results []domain.AnimeSummary `json:"results"`
	Message string                `json:"message,omitempty"`
}

// SearchController fusionne requête et filtres en une clé, attend que la clé
// soit stable pendant la fenêtre de debounce, puis lance une seule recherche.
// Une nouvelle clé annule la recherche précédente.
type SearchController struct {
	catalog  *CatalogService
	logger   zerolog.Logger
	debounce time.Duration
	state    *StateHolder[SearchState]
	fetches  *fetchGroup

	mu      sync.Mutex
	query   string
	filters map[string]string
	timer   *time.Timer
	tick    uint64
	fired   uint64
	issued  bool
	lastKey string
	closed  bool

	// Dernière clé émise, rejouée par Retry.
	lastQuery   string
	lastFilters map[string]string
}

func NewSearchController(catalog *CatalogService, debounce time.Duration, logger zerolog.Logger) *SearchController {
	if debounce < 0 {
		debounce = DefaultSearchDebounce
	}
	logger = logger.With().Str("component", "search").Logger()
	return &SearchController{
		catalog:  catalog,
		logger:   logger,
		debounce: debounce,
		state:    NewStateHolder(SearchState{Phase: PhaseIdle, Results: []domain.AnimeSummary{}}),
		fetches:  newFetchGroup(logger),
		filters:  map[string]string{},
	}
}

func (c *SearchController) State() SearchState { return c.state.Get() }

func (c *SearchController) Subscribe() (<-chan SearchState, func()) { return c.state.Subscribe() }

func (c *SearchController) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
	c.scheduleLocked()
}

// SetFilter ajoute ou remplace un filtre; une valeur vide le retire.
func (c *SearchController) SetFilter(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if strings.TrimSpace(value) == "" {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.scheduleLocked()
}

func (c *SearchController) Filters() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Assign(c.filters)
}

// Flush émet immédiatement la clé en attente de debounce. Au retour, la
// recherche correspondante est lancée: Wait la couvre, même si le timer
// avait déjà expiré.
func (c *SearchController) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer == nil {
		return
	}
	c.timer.Stop()
	c.fireLocked(c.tick)
}

// Retry relance la dernière clé émise si la recherche a échoué, sans
// passer par le filtre distinct-until-changed.
func (c *SearchController) Retry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.issued || c.state.Get().Phase != PhaseError {
		return false
	}
	c.issueLocked(c.lastQuery, lo.Assign(c.lastFilters))
	return true
}

// Wait bloque jusqu'à la fin de la recherche en cours (sans attendre le debounce).
func (c *SearchController) Wait() { c.fetches.Wait() }

func (c *SearchController) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	c.fetches.Close()
}

func (c *SearchController) scheduleLocked() {
	if c.closed {
		return
	}
	c.tick++
	tick := c.tick
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(tick) })
}

func (c *SearchController) fire(tick uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fireLocked(tick)
}

// fireLocked émet la clé de tick une seule fois, que ce soit par le timer
// ou par Flush.
func (c *SearchController) fireLocked(tick uint64) {
	if c.closed || tick != c.tick || tick == c.fired {
		return
	}
	c.fired = tick
	query := norm.NFC.String(c.query)
	filters := lo.Assign(c.filters)
	key := searchKey(query, filters)
	if c.issued && key == c.lastKey {
		return
	}
	c.issued = true
	c.lastKey = key
	c.lastQuery = query
	c.lastFilters = filters
	c.issueLocked(query, lo.Assign(filters))
}

func (c *SearchController) issueLocked(query string, filters map[string]string) {
	if strings.TrimSpace(query) == "" {
		c.fetches.Start(func() bool {
			c.state.Set(SearchState{Phase: PhaseIdle, Filters: filters, Results: []domain.AnimeSummary{}})
			return true
		}, nil)
		return
	}

	c.fetches.Start(func() bool {
		c.state.Set(SearchState{Phase: PhaseLoading, Query: query, Filters: filters, Results: []domain.AnimeSummary{}})
		return true
	}, func(ctx context.Context, gen uint64, log zerolog.Logger) {
		env, err := c.catalog.Search(ctx, query, 1, filters)
		if ctx.Err() != nil {
			return
		}
		c.fetches.Commit(gen, func() {
			next := SearchState{Phase: PhaseSuccess, Query: query, Filters: filters, Results: []domain.AnimeSummary{}}
			switch {
			case err != nil:
				next.Phase, next.Message = PhaseError, err.Error()
			case !env.Success:
				next.Phase, next.Message = PhaseError, noResultsMessage
			case env.Data != nil:
				next.Results = orEmpty(env.Data.Animes)
			}
			log.Debug().Str("query", query).Str("phase", string(next.Phase)).Int("results", len(next.Results)).Msg("search done")
			c.state.Set(next)
		})
	})
}

func searchKey(query string, filters map[string]string) string {
	keys := lo.Keys(filters)
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(query)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(filters[k])
	}
	return b.String()
}
