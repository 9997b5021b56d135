package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

type memWatchlistRepo struct {
	mu   sync.Mutex
	byID map[string]domain.WatchlistEntry
}

func newMemWatchlistRepo() *memWatchlistRepo {
	return &memWatchlistRepo{byID: map[string]domain.WatchlistEntry{}}
}

func (r *memWatchlistRepo) Upsert(ctx context.Context, e domain.WatchlistEntry) (domain.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[e.AnimeID] = e
	return e, nil
}

func (r *memWatchlistRepo) UpdateProgress(ctx context.Context, id string, episode int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return ports.ErrNotFound
	}
	e.CurrentEpisode, e.LastUpdated = episode, at
	r.byID[id] = e
	return nil
}

func (r *memWatchlistRepo) UpdateStatus(ctx context.Context, id string, status domain.WatchStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return ports.ErrNotFound
	}
	e.Status, e.LastUpdated = status, at
	r.byID[id] = e
	return nil
}

func (r *memWatchlistRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memWatchlistRepo) Get(ctx context.Context, id string) (domain.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.WatchlistEntry{}, ports.ErrNotFound
	}
	return e, nil
}

func (r *memWatchlistRepo) List(ctx context.Context) ([]domain.WatchlistEntry, error) {
	return r.filter(func(domain.WatchlistEntry) bool { return true }), nil
}

func (r *memWatchlistRepo) ListByStatus(ctx context.Context, status domain.WatchStatus) ([]domain.WatchlistEntry, error) {
	return r.filter(func(e domain.WatchlistEntry) bool { return e.Status == status }), nil
}

func (r *memWatchlistRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *memWatchlistRepo) CountByStatus(ctx context.Context, status domain.WatchStatus) (int, error) {
	list, _ := r.ListByStatus(ctx, status)
	return len(list), nil
}

func (r *memWatchlistRepo) RecentTitles(ctx context.Context, statuses []domain.WatchStatus, limit int) ([]string, error) {
	want := map[domain.WatchStatus]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	out := []string{}
	for _, e := range r.filter(func(e domain.WatchlistEntry) bool { return want[e.Status] }) {
		if len(out) == limit {
			break
		}
		out = append(out, e.Title)
	}
	return out, nil
}

func (r *memWatchlistRepo) filter(keep func(domain.WatchlistEntry) bool) []domain.WatchlistEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.WatchlistEntry{}
	for _, e := range r.byID {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].LastUpdated.After(out[j].LastUpdated)
		}
		return out[i].AnimeID < out[j].AnimeID
	})
	return out
}

type memSettingsRepo struct {
	mu    sync.Mutex
	prefs *domain.Preferences
}

func (r *memSettingsRepo) Get(ctx context.Context) (domain.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prefs == nil {
		return domain.DefaultPreferences(), nil
	}
	return *r.prefs, nil
}

func (r *memSettingsRepo) Put(ctx context.Context, p domain.Preferences) (domain.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs = &p
	return p, nil
}

type memSessionStore struct {
	mu   sync.Mutex
	user *domain.User
}

func (s *memSessionStore) Load(ctx context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, ports.ErrNotFound
	}
	return *s.user, nil
}

func (s *memSessionStore) Save(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	return nil
}

func (s *memSessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}

// fakeCatalog enregistre chaque appel ("op:arg") et délègue aux fonctions fournies.
// Une fonction absente renvoie une enveloppe success=false (404).
type fakeCatalog struct {
	mu    sync.Mutex
	calls []string

	home        func(ctx context.Context) (domain.Envelope[domain.HomeData], error)
	search      func(ctx context.Context, q string, page int, filters map[string]string) (domain.Envelope[domain.PagedAnimes], error)
	details     func(ctx context.Context, id string) (domain.Envelope[domain.AnimeDetailsDTO], error)
	episodes    func(ctx context.Context, id string) (domain.Envelope[[]domain.Episode], error)
	stream      func(ctx context.Context, ep, server, category string) (domain.Envelope[domain.StreamingResponse], error)
	listing     func(ctx context.Context, kind, name string, page int) (domain.Envelope[domain.PagedAnimes], error)
	schedule    func(ctx context.Context, date string) (domain.Envelope[domain.ScheduleResponse], error)
	characters  func(ctx context.Context, id string) (domain.Envelope[domain.CharacterPage], error)
	nextEpisode func(ctx context.Context, id string) (domain.Envelope[domain.NextEpisode], error)
}

func (f *fakeCatalog) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCatalog) Home(ctx context.Context) (domain.Envelope[domain.HomeData], error) {
	f.record("home")
	if f.home == nil {
		return domain.Failed[domain.HomeData](404), nil
	}
	return f.home(ctx)
}

func (f *fakeCatalog) Search(ctx context.Context, q string, page int, filters map[string]string) (domain.Envelope[domain.PagedAnimes], error) {
	f.record("search:%s", q)
	if f.search == nil {
		return domain.Failed[domain.PagedAnimes](404), nil
	}
	return f.search(ctx, q, page, filters)
}

func (f *fakeCatalog) Suggestions(ctx context.Context, q string) (domain.Envelope[domain.SuggestionResponse], error) {
	f.record("suggestion:%s", q)
	return domain.Failed[domain.SuggestionResponse](404), nil
}

func (f *fakeCatalog) Details(ctx context.Context, id string) (domain.Envelope[domain.AnimeDetailsDTO], error) {
	f.record("details:%s", id)
	if f.details == nil {
		return domain.Failed[domain.AnimeDetailsDTO](404), nil
	}
	return f.details(ctx, id)
}

func (f *fakeCatalog) Episodes(ctx context.Context, id string) (domain.Envelope[[]domain.Episode], error) {
	f.record("episodes:%s", id)
	if f.episodes == nil {
		return domain.Failed[[]domain.Episode](404), nil
	}
	return f.episodes(ctx, id)
}

func (f *fakeCatalog) Servers(ctx context.Context, ep string) (domain.Envelope[domain.EpisodeServers], error) {
	f.record("servers:%s", ep)
	return domain.Failed[domain.EpisodeServers](404), nil
}

func (f *fakeCatalog) StreamingSources(ctx context.Context, ep, server, category string) (domain.Envelope[domain.StreamingResponse], error) {
	f.record("stream:%s:%s:%s", ep, server, category)
	if f.stream == nil {
		return domain.Failed[domain.StreamingResponse](404), nil
	}
	return f.stream(ctx, ep, server, category)
}

func (f *fakeCatalog) listingCall(ctx context.Context, kind, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	f.record("%s:%s:%d", kind, name, page)
	if f.listing == nil {
		return domain.Failed[domain.PagedAnimes](404), nil
	}
	return f.listing(ctx, kind, name, page)
}

func (f *fakeCatalog) Genre(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	return f.listingCall(ctx, "genre", name, page)
}

func (f *fakeCatalog) Category(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	return f.listingCall(ctx, "category", name, page)
}

func (f *fakeCatalog) AZList(ctx context.Context, sortOption string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	return f.listingCall(ctx, "az", sortOption, page)
}

func (f *fakeCatalog) EstimatedSchedule(ctx context.Context, date string) (domain.Envelope[domain.ScheduleResponse], error) {
	f.record("schedule:%s", date)
	if f.schedule == nil {
		return domain.Failed[domain.ScheduleResponse](404), nil
	}
	return f.schedule(ctx, date)
}

func (f *fakeCatalog) Characters(ctx context.Context, id string) (domain.Envelope[domain.CharacterPage], error) {
	f.record("characters:%s", id)
	if f.characters == nil {
		return domain.Failed[domain.CharacterPage](404), nil
	}
	return f.characters(ctx, id)
}

func (f *fakeCatalog) NextEpisodeSchedule(ctx context.Context, id string) (domain.Envelope[domain.NextEpisode], error) {
	f.record("next:%s", id)
	if f.nextEpisode == nil {
		return domain.Failed[domain.NextEpisode](404), nil
	}
	return f.nextEpisode(ctx, id)
}

func makeAnimes(prefix string, n int) []domain.AnimeSummary {
	out := make([]domain.AnimeSummary, n)
	for i := range out {
		out[i] = domain.AnimeSummary{ID: fmt.Sprintf("%s-%d", prefix, i), Name: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

func pageOf(items []domain.AnimeSummary, current int, hasNext bool) domain.Envelope[domain.PagedAnimes] {
	return domain.Succeeded(domain.PagedAnimes{
		PageInfo: &domain.PageInfo{CurrentPage: current, TotalPages: current + 1, HasNextPage: hasNext},
		Animes:   items,
	})
}

func ptr[T any](v T) *T { return &v }
