package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func detailsCatalog() *fakeCatalog {
	return &fakeCatalog{
		details: func(_ context.Context, id string) (domain.Envelope[domain.AnimeDetailsDTO], error) {
			return domain.Succeeded(domain.AnimeDetailsDTO{
				ID:       id,
				Name:     "Solo Leveling",
				Poster:   "https://img/solo.jpg",
				Type:     ptr("TV"),
				Episodes: &domain.Episodes{Sub: ptr(12)},
			}), nil
		},
		episodes: func(context.Context, string) (domain.Envelope[[]domain.Episode], error) {
			return domain.Succeeded([]domain.Episode{{Number: 1, ID: "solo?ep=1"}, {Number: 2, ID: "solo?ep=2"}, {Number: 3, ID: "solo?ep=3"}}), nil
		},
		characters: func(context.Context, string) (domain.Envelope[domain.CharacterPage], error) {
			return domain.Envelope[domain.CharacterPage]{}, errors.New("timeout")
		},
		nextEpisode: func(context.Context, string) (domain.Envelope[domain.NextEpisode], error) {
			return domain.Succeeded(domain.NextEpisode{Time: "2024-01-06 17:00:00"}), nil
		},
	}
}

func newDetails(fake *fakeCatalog) (*DetailsController, *WatchlistService) {
	wl, _ := newWatchlist()
	return NewDetailsController(NewCatalogService(fake, zerolog.Nop()), wl, zerolog.Nop()), wl
}

func TestDetailsController_SecondaryFailuresAreBestEffort(t *testing.T) {
	fake := detailsCatalog()
	c, _ := newDetails(fake)
	defer c.Close()

	c.Load("solo?ep=2")
	c.Wait()

	st := c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "solo", st.AnimeID)
	require.NotNil(t, st.Details)
	assert.Equal(t, "Solo Leveling", st.Details.Info.Name)
	assert.Len(t, st.Episodes, 3)
	assert.Empty(t, st.Characters, "characters failed silently")
	assert.Equal(t, "2024-01-06 17:00:00", st.NextEpisode.OrEmpty())
	assert.False(t, st.InWatchlist)

	assert.Contains(t, fake.Calls(), "details:solo")
	assert.Contains(t, fake.Calls(), "characters:solo")
}

func TestDetailsController_DetailsFailure(t *testing.T) {
	fake := &fakeCatalog{}
	c, _ := newDetails(fake)
	defer c.Close()

	c.Load("missing")
	c.Wait()
	st := c.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "Failed to load details", st.Message)
	assert.NotContains(t, fake.Calls(), "episodes:missing")

	_, err := c.ToggleWatchlist(context.Background())
	assert.ErrorIs(t, err, ErrDetailsNotLoaded)
}

func TestDetailsController_ToggleWatchlistTotals(t *testing.T) {
	ctx := context.Background()
	fake := detailsCatalog()
	c, wl := newDetails(fake)
	defer c.Close()

	c.Load("solo")
	c.Wait()

	in, err := c.ToggleWatchlist(ctx)
	require.NoError(t, err)
	assert.True(t, in)
	assert.True(t, c.State().InWatchlist)

	e, err := wl.Get(ctx, "solo")
	require.NoError(t, err)
	assert.Equal(t, "Solo Leveling", e.Title)
	assert.Equal(t, "TV", e.Type)
	require.NotNil(t, e.TotalEpisodes)
	assert.Equal(t, 3, *e.TotalEpisodes, "loaded episodes win over the sub count")

	in, err = c.ToggleWatchlist(ctx)
	require.NoError(t, err)
	assert.False(t, in)

	// Sans épisodes chargés, le compteur sub sert de total.
	fake.episodes = nil
	c.Load("solo")
	c.Wait()
	_, err = c.ToggleWatchlist(ctx)
	require.NoError(t, err)
	e, err = wl.Get(ctx, "solo")
	require.NoError(t, err)
	assert.Equal(t, 12, *e.TotalEpisodes)

	c.Load("solo")
	c.Wait()
	assert.True(t, c.State().InWatchlist, "membership is read on load")
}

func TestTotalEpisodes_Unknown(t *testing.T) {
	assert.Nil(t, totalEpisodes(DetailsState{Details: &AnimeDetails{}}))
}

func TestDetailsController_SecondaryFetchesAreBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	track := func() {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}

	fake := detailsCatalog()
	episodes, characters, next := fake.episodes, fake.characters, fake.nextEpisode
	fake.episodes = func(ctx context.Context, id string) (domain.Envelope[[]domain.Episode], error) {
		track()
		return episodes(ctx, id)
	}
	fake.characters = func(ctx context.Context, id string) (domain.Envelope[domain.CharacterPage], error) {
		track()
		return characters(ctx, id)
	}
	fake.nextEpisode = func(ctx context.Context, id string) (domain.Envelope[domain.NextEpisode], error) {
		track()
		return next(ctx, id)
	}
	c, _ := newDetails(fake)
	defer c.Close()

	c.Load("solo")
	c.Wait()

	st := c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	assert.Len(t, st.Episodes, 3, "a failing sibling does not cancel the others")
	assert.Equal(t, "2024-01-06 17:00:00", st.NextEpisode.OrEmpty())
	assert.LessOrEqual(t, int(peak.Load()), secondaryFetchLimit)
	assert.Len(t, fake.Calls(), 4)
}
