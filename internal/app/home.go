package app

import (
	"context"

	"github.com/rs/zerolog"
)

const homeErrorMessage = "Failed to load data"

type HomeState struct {
	Phase   Phase     `json:"phase"`
	Feed    *HomeFeed `json:"feed,omitempty"`
	Message string    `json:"message,omitempty"`
}

type HomeController struct {
	catalog *CatalogService
	state   *StateHolder[HomeState]
	fetches *fetchGroup
}

func NewHomeController(catalog *CatalogService, logger zerolog.Logger) *HomeController {
	logger = logger.With().Str("component", "home").Logger()
	return &HomeController{
		catalog: catalog,
		state:   NewStateHolder(HomeState{Phase: PhaseIdle}),
		fetches: newFetchGroup(logger),
	}
}

func (c *HomeController) State() HomeState { return c.state.Get() }

func (c *HomeController) Subscribe() (<-chan HomeState, func()) { return c.state.Subscribe() }

// Load sert aussi de retry.
func (c *HomeController) Load() {
	c.fetches.Start(func() bool {
		c.state.Set(HomeState{Phase: PhaseLoading})
		return true
	}, func(ctx context.Context, gen uint64, log zerolog.Logger) {
		env, err := c.catalog.Home(ctx)
		if ctx.Err() != nil {
			return
		}
		c.fetches.Commit(gen, func() {
			if err != nil || !env.OK() {
				log.Warn().Err(err).Int("status", env.Status).Msg("home fetch failed")
				c.state.Set(HomeState{Phase: PhaseError, Message: homeErrorMessage})
				return
			}
			feed := *env.Data
			c.state.Set(HomeState{Phase: PhaseSuccess, Feed: &feed})
		})
	})
}

func (c *HomeController) Wait() { c.fetches.Wait() }

func (c *HomeController) Close() { c.fetches.Close() }
