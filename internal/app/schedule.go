package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

const (
	DateLayout = "2006-01-02"

	noScheduleMessage = "No schedule data found"
)

type ScheduleState struct {
	Phase   Phase                   `json:"phase"`
	Date    string                  `json:"date"`
	Animes  []domain.ScheduledAnime `json:"animes"`
	Message string                  `json:"message,omitempty"`
}

type ScheduleController struct {
	catalog *CatalogService
	logger  zerolog.Logger
	state   *StateHolder[ScheduleState]
	fetches *fetchGroup

	// Protégé par le verrou du fetchGroup.
	current time.Time
}

func NewScheduleController(catalog *CatalogService, logger zerolog.Logger) *ScheduleController {
	logger = logger.With().Str("component", "schedule").Logger()
	return &ScheduleController{
		catalog: catalog,
		logger:  logger,
		state:   NewStateHolder(ScheduleState{Phase: PhaseIdle, Animes: []domain.ScheduledAnime{}}),
		fetches: newFetchGroup(logger),
		current: time.Now(),
	}
}

func (c *ScheduleController) State() ScheduleState { return c.state.Get() }

func (c *ScheduleController) Subscribe() (<-chan ScheduleState, func()) { return c.state.Subscribe() }

// Current renvoie la date actuellement affichée.
func (c *ScheduleController) Current() time.Time {
	var t time.Time
	c.fetches.Locked(func() { t = c.current })
	return t
}

func (c *ScheduleController) Load(date time.Time) {
	c.load(func(time.Time) time.Time { return date })
}

func (c *ScheduleController) NextDay() {
	c.load(func(cur time.Time) time.Time { return cur.AddDate(0, 0, 1) })
}

func (c *ScheduleController) PreviousDay() {
	c.load(func(cur time.Time) time.Time { return cur.AddDate(0, 0, -1) })
}

func (c *ScheduleController) Retry() {
	c.load(func(cur time.Time) time.Time { return cur })
}

func (c *ScheduleController) Wait() { c.fetches.Wait() }

func (c *ScheduleController) Close() { c.fetches.Close() }

func (c *ScheduleController) load(next func(time.Time) time.Time) {
	var date string
	c.fetches.Start(func() bool {
		c.current = next(c.current)
		date = c.current.Format(DateLayout)
		c.state.Set(ScheduleState{Phase: PhaseLoading, Date: date, Animes: []domain.ScheduledAnime{}})
		return true
	}, func(ctx context.Context, gen uint64, log zerolog.Logger) {
		env, err := c.catalog.Schedule(ctx, date)
		if ctx.Err() != nil {
			return
		}
		c.fetches.Commit(gen, func() {
			// Seule la présence de données compte, comme côté API.
			if env.Data == nil {
				log.Warn().Err(err).Str("date", date).Int("status", env.Status).Msg("schedule fetch failed")
				c.state.Set(ScheduleState{Phase: PhaseError, Date: date, Animes: []domain.ScheduledAnime{}, Message: noScheduleMessage})
				return
			}
			shown := env.Data.Date
			if shown == "" {
				shown = date
			}
			c.state.Set(ScheduleState{Phase: PhaseSuccess, Date: shown, Animes: orEmpty(env.Data.ScheduledAnimes)})
		})
	})
}
