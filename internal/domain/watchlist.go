package domain

import (
	"errors"
	"strings"
	"time"
)

type WatchStatus string

const (
	StatusWatching    WatchStatus = "WATCHING"
	StatusCompleted   WatchStatus = "COMPLETED"
	StatusPlanToWatch WatchStatus = "PLAN_TO_WATCH"
)

var ErrInvalidWatchStatus = errors.New("invalid watch status")

// AllWatchStatuses lists statuses in display order.
func AllWatchStatuses() []WatchStatus {
	return []WatchStatus{StatusWatching, StatusCompleted, StatusPlanToWatch}
}

func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusPlanToWatch:
		return true
	default:
		return false
	}
}

// ParseWatchStatus accepte "watching", "plan-to-watch", "PLAN_TO_WATCH", etc.
func ParseWatchStatus(raw string) (WatchStatus, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	st := WatchStatus(s)
	if !st.Valid() {
		return "", ErrInvalidWatchStatus
	}
	return st, nil
}

// WatchlistEntry is one row of the local watchlist, keyed by the remote anime id.
type WatchlistEntry struct {
	AnimeID        string      `json:"animeId"`
	Title          string      `json:"title"`
	PosterURL      string      `json:"posterUrl"`
	CurrentEpisode int         `json:"currentEpisode"`
	TotalEpisodes  *int        `json:"totalEpisodes,omitempty"`
	Status         WatchStatus `json:"status"`
	AddedAt        time.Time   `json:"addedAt"`
	LastUpdated    time.Time   `json:"lastUpdated"`
	// Type: TV, Movie, OVA...
	Type string `json:"type,omitempty"`
}
