package app

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/mo"
	"golang.org/x/text/cases"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

const TopicWatchlistChanged = "watchlist.changed"

const (
	ChangeAdded   = "added"
	ChangeUpdated = "updated"
	ChangeRemoved = "removed"
)

// recentTitlesLimit reprend la limite de la requête "titres récents".
const recentTitlesLimit = 20

type WatchlistService struct {
	repo ports.WatchlistRepository
	bus  ports.EventBus
	now  func() time.Time
}

func NewWatchlistService(repo ports.WatchlistRepository, bus ports.EventBus) *WatchlistService {
	return &WatchlistService{repo: repo, bus: bus, now: func() time.Time { return time.Now().UTC() }}
}

type AddRequest struct {
	AnimeID       string             `json:"animeId"`
	Title         string             `json:"title"`
	PosterURL     string             `json:"posterUrl,omitempty"`
	TotalEpisodes *int               `json:"totalEpisodes,omitempty"`
	Type          string             `json:"type,omitempty"`
	Status        domain.WatchStatus `json:"status,omitempty"`
}

// WatchlistChange est le payload publié sur TopicWatchlistChanged.
type WatchlistChange struct {
	Action  string                 `json:"action"`
	AnimeID string                 `json:"animeId"`
	Entry   *domain.WatchlistEntry `json:"entry,omitempty"`
}

type WatchlistStats struct {
	Total        int                        `json:"total"`
	ByStatus     map[domain.WatchStatus]int `json:"byStatus"`
	RecentTitles []string                   `json:"recentTitles"`
}

func (s *WatchlistService) publish(action, animeID string, entry *domain.WatchlistEntry) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(WatchlistChange{Action: action, AnimeID: animeID, Entry: entry})
	if err != nil {
		return
	}
	s.bus.Publish(TopicWatchlistChanged, b)
}

func cleanID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidParams("missing animeId", nil)
	}
	return id, nil
}

// Add insère ou remplace l'entrée (progression remise à 0).
func (s *WatchlistService) Add(ctx context.Context, req AddRequest) (domain.WatchlistEntry, error) {
	id, err := cleanID(req.AnimeID)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return domain.WatchlistEntry{}, invalidParams("missing title", nil)
	}
	status := req.Status
	if status == "" {
		status = domain.StatusPlanToWatch
	}
	if !status.Valid() {
		return domain.WatchlistEntry{}, invalidParams("invalid status", domain.ErrInvalidWatchStatus)
	}
	if req.TotalEpisodes != nil && *req.TotalEpisodes < 0 {
		return domain.WatchlistEntry{}, invalidParams("invalid totalEpisodes", nil)
	}

	now := s.now()
	created, err := s.repo.Upsert(ctx, domain.WatchlistEntry{
		AnimeID:        id,
		Title:          strings.TrimSpace(req.Title),
		PosterURL:      req.PosterURL,
		CurrentEpisode: 0,
		TotalEpisodes:  req.TotalEpisodes,
		Status:         status,
		AddedAt:        now,
		LastUpdated:    now,
		Type:           req.Type,
	})
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	s.publish(ChangeAdded, id, &created)
	return created, nil
}

func (s *WatchlistService) UpdateProgress(ctx context.Context, animeID string, episode int) (domain.WatchlistEntry, error) {
	id, err := cleanID(animeID)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	if episode < 0 {
		return domain.WatchlistEntry{}, invalidParams("episode must be >= 0", nil)
	}
	if err := s.repo.UpdateProgress(ctx, id, episode, s.now()); err != nil {
		return domain.WatchlistEntry{}, err
	}
	return s.reloadAndPublish(ctx, id)
}

func (s *WatchlistService) UpdateStatus(ctx context.Context, animeID string, status domain.WatchStatus) (domain.WatchlistEntry, error) {
	id, err := cleanID(animeID)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	if !status.Valid() {
		return domain.WatchlistEntry{}, invalidParams("invalid status", domain.ErrInvalidWatchStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, status, s.now()); err != nil {
		return domain.WatchlistEntry{}, err
	}
	return s.reloadAndPublish(ctx, id)
}

func (s *WatchlistService) reloadAndPublish(ctx context.Context, id string) (domain.WatchlistEntry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	s.publish(ChangeUpdated, id, &e)
	return e, nil
}

func (s *WatchlistService) Remove(ctx context.Context, animeID string) error {
	id, err := cleanID(animeID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ChangeRemoved, id, nil)
	return nil
}

func (s *WatchlistService) Get(ctx context.Context, animeID string) (domain.WatchlistEntry, error) {
	return s.repo.Get(ctx, strings.TrimSpace(animeID))
}

func (s *WatchlistService) IsInWatchlist(ctx context.Context, animeID string) (bool, error) {
	_, err := s.repo.Get(ctx, strings.TrimSpace(animeID))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List renvoie toute la watchlist, ou seulement un statut si status est non nil.
func (s *WatchlistService) List(ctx context.Context, status *domain.WatchStatus) ([]domain.WatchlistEntry, error) {
	if status == nil {
		return s.repo.List(ctx)
	}
	if !status.Valid() {
		return nil, invalidParams("invalid status", domain.ErrInvalidWatchStatus)
	}
	return s.repo.ListByStatus(ctx, *status)
}

// MatchTitle garde les entrées dont le titre contient query en fuzzy
// (insensible à la casse et aux accents), triées par distance puis par récence.
func MatchTitle(entries []domain.WatchlistEntry, query string) []domain.WatchlistEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	// Distance se calcule sur les chaînes telles quelles: on replie la casse avant.
	fold := cases.Fold()
	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = fold.String(e.Title)
	}
	ranks := fuzzy.RankFindNormalized(fold.String(query), titles)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	out := make([]domain.WatchlistEntry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, entries[r.OriginalIndex])
	}
	return out
}

func (s *WatchlistService) Stats(ctx context.Context) (WatchlistStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return WatchlistStats{}, err
	}
	out := WatchlistStats{Total: total, ByStatus: map[domain.WatchStatus]int{}}
	for _, st := range domain.AllWatchStatuses() {
		n, err := s.repo.CountByStatus(ctx, st)
		if err != nil {
			return WatchlistStats{}, err
		}
		out.ByStatus[st] = n
	}
	out.RecentTitles, err = s.repo.RecentTitles(ctx, []domain.WatchStatus{domain.StatusWatching, domain.StatusCompleted}, recentTitlesLimit)
	if err != nil {
		return WatchlistStats{}, err
	}
	return out, nil
}

// Toggle retire l'anime s'il est présent, sinon l'ajoute en PLAN_TO_WATCH.
// Lecture puis écriture sans transaction: le store est mono-utilisateur.
// Renvoie l'appartenance après l'opération.
func (s *WatchlistService) Toggle(ctx context.Context, req AddRequest) (bool, error) {
	id, err := cleanID(req.AnimeID)
	if err != nil {
		return false, err
	}
	in, err := s.IsInWatchlist(ctx, id)
	if err != nil {
		return false, err
	}
	if in {
		if err := s.Remove(ctx, id); err != nil && !errors.Is(err, ports.ErrNotFound) {
			return true, err
		}
		return false, nil
	}
	req.AnimeID = id
	req.Status = domain.StatusPlanToWatch
	if _, err := s.Add(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

// Watch émet l'entrée courante (ou son absence), puis une nouvelle valeur
// après chaque mutation de cet anime, jusqu'à l'annulation de ctx.
func (s *WatchlistService) Watch(ctx context.Context, animeID string) <-chan mo.Option[domain.WatchlistEntry] {
	id := strings.TrimSpace(animeID)
	out := make(chan mo.Option[domain.WatchlistEntry], 1)

	var events <-chan ports.Event
	unsubscribe := func() {}
	if s.bus != nil {
		events, unsubscribe = s.bus.Subscribe()
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		emit := func() bool {
			e, err := s.repo.Get(ctx, id)
			var v mo.Option[domain.WatchlistEntry]
			switch {
			case err == nil:
				v = mo.Some(e)
			case errors.Is(err, ports.ErrNotFound):
				v = mo.None[domain.WatchlistEntry]()
			default:
				// Erreur de lecture: on attend la prochaine mutation.
				return ctx.Err() == nil
			}
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if evt.Topic != TopicWatchlistChanged {
					continue
				}
				var change WatchlistChange
				if err := json.Unmarshal(evt.Payload, &change); err != nil || change.AnimeID != id {
					continue
				}
				if !emit() {
					return
				}
			}
		}
	}()
	return out
}
