package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func newListController(fake *fakeCatalog) *ListController {
	return NewListController(NewCatalogService(fake, zerolog.Nop()), zerolog.Nop())
}

func TestBrowseKey_Title(t *testing.T) {
	assert.Equal(t, "Action", BrowseKey{Kind: BrowseGenre, Query: "action"}.Title())
	assert.Equal(t, "Most-popular", BrowseKey{Kind: BrowseCategory, Query: "most-popular"}.Title())
	assert.Equal(t, "A-Z: all", BrowseKey{Kind: BrowseAZ, Query: "all"}.Title())
	assert.Equal(t, "Unknown", BrowseKey{Kind: "other", Query: "x"}.Title())
	assert.Equal(t, "Élan", BrowseKey{Kind: BrowseGenre, Query: "élan"}.Title())
}

func TestListController_PaginationAppendsThenResets(t *testing.T) {
	fake := &fakeCatalog{listing: func(_ context.Context, kind, name string, p int) (domain.Envelope[domain.PagedAnimes], error) {
		return pageOf(makeAnimes(name+"-p"+string(rune('0'+p)), 3), p, p < 2), nil
	}}
	c := newListController(fake)
	defer c.Close()

	key := BrowseKey{Kind: BrowseGenre, Query: "action"}
	c.Load(key)
	assert.Equal(t, PhaseLoading, c.State().Phase)
	c.Wait()

	st := c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "Action", st.Title)
	assert.Equal(t, 1, st.Page)
	assert.True(t, st.HasNext)
	require.Len(t, st.Animes, 3)

	require.True(t, c.LoadNextPage())
	c.Wait()
	st = c.State()
	assert.Equal(t, 2, st.Page)
	assert.False(t, st.HasNext)
	require.Len(t, st.Animes, 6)
	assert.Equal(t, "action-p1-0", st.Animes[0].ID)
	assert.Equal(t, "action-p2-0", st.Animes[3].ID)

	assert.False(t, c.LoadNextPage(), "no next page")

	c.Load(BrowseKey{Kind: BrowseCategory, Query: "tv"})
	c.Wait()
	st = c.State()
	assert.Equal(t, "Tv", st.Title)
	assert.Equal(t, 1, st.Page)
	assert.Len(t, st.Animes, 3)
	assert.Equal(t, "tv-p1-0", st.Animes[0].ID)

	assert.Equal(t, []string{"genre:action:1", "genre:action:2", "category:tv:1"}, fake.Calls())
}

func TestListController_OnScrollThreshold(t *testing.T) {
	fake := &fakeCatalog{listing: func(_ context.Context, _, _ string, p int) (domain.Envelope[domain.PagedAnimes], error) {
		return pageOf(makeAnimes("x", 20), p, true), nil
	}}
	c := newListController(fake)
	defer c.Close()

	c.Load(BrowseKey{Kind: BrowseAZ, Query: "all"})
	c.Wait()

	assert.False(t, c.OnScroll(10, 20), "9 items left")
	assert.False(t, c.OnScroll(13, 20), "exactly 6 items left")
	assert.True(t, c.OnScroll(14, 20))
	c.Wait()
	assert.Equal(t, 2, c.State().Page)
	assert.Len(t, fake.Calls(), 2)
}

func TestListController_ErrorAndRetry(t *testing.T) {
	fail := true
	fake := &fakeCatalog{listing: func(_ context.Context, _, _ string, p int) (domain.Envelope[domain.PagedAnimes], error) {
		if p == 2 && fail {
			return domain.Failed[domain.PagedAnimes](500), nil
		}
		return pageOf(makeAnimes("p", 2), p, true), nil
	}}
	c := newListController(fake)
	defer c.Close()

	assert.False(t, c.Retry(), "nothing to retry")

	c.Load(BrowseKey{Kind: BrowseGenre, Query: "drama"})
	c.Wait()
	require.True(t, c.LoadNextPage())
	c.Wait()

	st := c.State()
	require.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "failed to load listing", st.Message)
	assert.Len(t, st.Animes, 2, "previous results are kept")
	assert.False(t, c.LoadNextPage(), "no pagination from Error")

	fail = false
	require.True(t, c.Retry())
	c.Wait()
	st = c.State()
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, 2, st.Page)
	assert.Len(t, st.Animes, 4)
}

func TestListController_InvalidKeyIsEmpty(t *testing.T) {
	fake := &fakeCatalog{}
	c := newListController(fake)
	defer c.Close()

	c.Load(BrowseKey{Kind: "studio", Query: "mappa"})
	c.Wait()
	st := c.State()
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "Unknown", st.Title)
	assert.Empty(t, st.Animes)
	assert.Empty(t, fake.Calls())
}

func TestListController_KeyChangeResetsBeforeInFlightPageCompletes(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeCatalog{listing: func(_ context.Context, _, name string, p int) (domain.Envelope[domain.PagedAnimes], error) {
		if name == "action" && p == 2 {
			<-release
		}
		return pageOf(makeAnimes(name, 3), p, true), nil
	}}
	c := newListController(fake)
	defer c.Close()

	c.Load(BrowseKey{Kind: BrowseGenre, Query: "action"})
	c.Wait()
	require.True(t, c.LoadNextPage())
	require.Eventually(t, func() bool { return len(fake.Calls()) == 2 }, 2*time.Second, 5*time.Millisecond)

	c.Load(BrowseKey{Kind: BrowseCategory, Query: "movie"})
	st := c.State()
	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Equal(t, 1, st.Page)
	assert.Empty(t, st.Animes)
	assert.Equal(t, "Movie", st.Title)

	close(release)
	c.Wait()

	st = c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, 1, st.Page)
	require.Len(t, st.Animes, 3)
	assert.Equal(t, "movie-0", st.Animes[0].ID)
}
