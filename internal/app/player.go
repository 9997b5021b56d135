package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

const (
	invalidEpisodeMessage = "Invalid episode ID"
	noVideoURLMessage     = "No video URL found"
)

type StreamInfo struct {
	URL     string            `json:"url"`
	Type    string            `json:"type,omitempty"`
	Tracks  []domain.Track    `json:"tracks"`
	Headers map[string]string `json:"headers"`
}

type PlayerState struct {
	Phase     Phase       `json:"phase"`
	EpisodeID string      `json:"episodeId"`
	Server    string      `json:"server"`
	Category  string      `json:"category"`
	Stream    *StreamInfo `json:"stream,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// PlayerController résout l'URL lisible d'un épisode. Si le serveur demandé
// échoue, son serveur de repli (FallbackServers) est essayé une fois et
// devient le serveur courant s'il répond.
type PlayerController struct {
	catalog *CatalogService
	logger  zerolog.Logger
	state   *StateHolder[PlayerState]
	fetches *fetchGroup

	// Protégés par le verrou du fetchGroup.
	episodeID string
	server    string
	category  string
	playlist  []domain.Episode
}

func NewPlayerController(catalog *CatalogService, prefs domain.Preferences, logger zerolog.Logger) *PlayerController {
	def := domain.DefaultPreferences()
	logger = logger.With().Str("component", "player").Logger()
	server := strings.TrimSpace(prefs.PreferredServer)
	if server == "" {
		server = def.PreferredServer
	}
	category := strings.TrimSpace(prefs.PreferredCategory)
	if category == "" {
		category = def.PreferredCategory
	}
	return &PlayerController{
		catalog:  catalog,
		logger:   logger,
		state:    NewStateHolder(PlayerState{Phase: PhaseIdle, Server: server, Category: category}),
		fetches:  newFetchGroup(logger),
		server:   server,
		category: category,
	}
}

func (c *PlayerController) State() PlayerState { return c.state.Get() }

func (c *PlayerController) Subscribe() (<-chan PlayerState, func()) { return c.state.Subscribe() }

// LoadStream charge un épisode. Un server ou une category vide garde la valeur courante.
func (c *PlayerController) LoadStream(episodeID, server, category string) {
	c.start(func() bool {
		if id := strings.TrimSpace(episodeID); id != "" {
			c.episodeID = id
		}
		if s := strings.TrimSpace(server); s != "" {
			c.server = s
		}
		if cat := strings.TrimSpace(category); cat != "" {
			c.category = cat
		}
		return true
	})
}

// SwitchServer recharge l'épisode courant si le serveur change.
func (c *PlayerController) SwitchServer(server string) bool {
	server = strings.TrimSpace(server)
	return c.start(func() bool {
		if server == "" || server == c.server {
			return false
		}
		c.server = server
		return true
	})
}

func (c *PlayerController) SwitchCategory(category string) bool {
	category = strings.TrimSpace(category)
	return c.start(func() bool {
		if category == "" || category == c.category {
			return false
		}
		c.category = category
		return true
	})
}

// SetPlaylist fournit la liste d'épisodes utilisée par PlayNext/PlayPrevious.
func (c *PlayerController) SetPlaylist(episodes []domain.Episode) {
	c.fetches.Locked(func() {
		c.playlist = append([]domain.Episode(nil), episodes...)
	})
}

func (c *PlayerController) PlayNext() bool { return c.step(1) }

func (c *PlayerController) PlayPrevious() bool { return c.step(-1) }

func (c *PlayerController) step(delta int) bool {
	return c.start(func() bool {
		for i, ep := range c.playlist {
			if ep.ID != c.episodeID {
				continue
			}
			j := i + delta
			if j < 0 || j >= len(c.playlist) {
				return false
			}
			c.episodeID = c.playlist[j].ID
			return true
		}
		return false
	})
}

func (c *PlayerController) Retry() bool {
	return c.start(func() bool { return c.state.Get().Phase == PhaseError })
}

func (c *PlayerController) Wait() { c.fetches.Wait() }

func (c *PlayerController) Close() { c.fetches.Close() }

func (c *PlayerController) start(mutate func() bool) bool {
	var episodeID, server, category string
	return c.fetches.Start(func() bool {
		if !mutate() {
			return false
		}
		episodeID, server, category = c.episodeID, c.server, c.category
		if episodeID == "" {
			c.state.Set(PlayerState{Phase: PhaseError, Server: server, Category: category, Message: invalidEpisodeMessage})
			return true
		}
		c.state.Set(PlayerState{Phase: PhaseLoading, EpisodeID: episodeID, Server: server, Category: category})
		return true
	}, func(ctx context.Context, gen uint64, log zerolog.Logger) {
		if episodeID == "" {
			return
		}
		c.load(ctx, gen, log, episodeID, server, category)
	})
}

func (c *PlayerController) load(ctx context.Context, gen uint64, log zerolog.Logger, episodeID, server, category string) {
	env, used, err := c.catalog.StreamWithFallback(ctx, episodeID, server, category)
	if ctx.Err() != nil {
		return
	}
	c.fetches.Commit(gen, func() {
		if used != server {
			log.Info().Str("from", server).Str("to", used).Msg("stream server switched to fallback")
			c.server = used
		}
		next := PlayerState{EpisodeID: episodeID, Server: c.server, Category: category}
		switch {
		case env.OK():
			link := env.Data.Link
			if link == nil || strings.TrimSpace(link.File) == "" {
				next.Phase, next.Message = PhaseError, noVideoURLMessage
				break
			}
			headers := env.Data.Headers
			if headers == nil {
				headers = map[string]string{}
			}
			next.Phase = PhaseSuccess
			next.Stream = &StreamInfo{URL: link.File, Type: link.Type, Tracks: orEmpty(env.Data.Tracks), Headers: headers}
		default:
			log.Warn().Err(err).Str("episode", episodeID).Str("server", c.server).Int("status", env.Status).Msg("stream fetch failed")
			next.Phase, next.Message = PhaseError, fmt.Sprintf("Failed to load stream (Server %s)", c.server)
		}
		c.state.Set(next)
	})
}
