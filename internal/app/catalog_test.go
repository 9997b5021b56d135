package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func TestNewAnimeDetails_Defaults(t *testing.T) {
	d := NewAnimeDetails(domain.AnimeDetailsDTO{ID: "naruto-677", Name: "Naruto", Rating: "PG-13"})

	assert.Equal(t, "naruto-677", d.Info.ID)
	assert.Equal(t, "", d.Info.Description)
	assert.Equal(t, "Unknown", d.Info.Stats.Type)
	assert.Equal(t, "Unknown", d.Info.Stats.Duration)
	assert.NotNil(t, d.MoreInfo.Genres)
	assert.NotNil(t, d.Seasons)
	assert.NotNil(t, d.Related)
}

func TestNewHomeFeed_CardKinds(t *testing.T) {
	feed := NewHomeFeed(domain.HomeData{
		Spotlight: []domain.SpotlightAnime{{ID: "s", Rank: 1, Description: "desc"}},
		Trending:  []domain.TrendingAnime{{ID: "t", Rank: 2}},
		Top10:     &domain.Top10Data{Week: []domain.Top10Anime{{ID: "w", Rank: 3}}},
		TopAiring: makeAnimes("air", 2),
	})

	require.Len(t, feed.Spotlight, 1)
	assert.Equal(t, CardSpotlight, feed.Spotlight[0].Kind)
	assert.Equal(t, "desc", feed.Spotlight[0].Description)
	assert.Equal(t, CardTrending, feed.Trending[0].Kind)
	assert.Equal(t, CardTop10, feed.Top10Week[0].Kind)
	assert.Empty(t, feed.Top10Today)
	assert.NotNil(t, feed.Top10Today)
	assert.Len(t, feed.TopAiring, 2)
	assert.Equal(t, CardCommon, feed.TopAiring[0].Kind)
	assert.NotNil(t, feed.Genres)
}

func TestCatalogService_FoldsTransportErrors(t *testing.T) {
	boom := errors.New("dial tcp: refused")
	svc := NewCatalogService(&fakeCatalog{
		details: func(context.Context, string) (domain.Envelope[domain.AnimeDetailsDTO], error) {
			return domain.Envelope[domain.AnimeDetailsDTO]{}, boom
		},
	}, zerolog.Nop())

	env, err := svc.Details(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
}

func TestCatalogService_EpisodesReshape(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{
		episodes: func(context.Context, string) (domain.Envelope[[]domain.Episode], error) {
			return domain.Succeeded([]domain.Episode{{Number: 1, ID: "a?ep=1"}, {Number: 2, ID: "a?ep=2"}}), nil
		},
	}, zerolog.Nop())

	env, err := svc.Episodes(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, env.OK())
	assert.Equal(t, 2, env.Data.TotalEpisodes)
}

func TestCatalogService_ListingRoutesByKind(t *testing.T) {
	fake := &fakeCatalog{}
	svc := NewCatalogService(fake, zerolog.Nop())
	ctx := context.Background()

	_, _ = svc.Listing(ctx, BrowseKey{Kind: BrowseGenre, Query: "action"}, 1)
	_, _ = svc.Listing(ctx, BrowseKey{Kind: BrowseCategory, Query: "tv"}, 2)
	_, _ = svc.Listing(ctx, BrowseKey{Kind: BrowseAZ, Query: "all"}, 3)
	_, err := svc.Listing(ctx, BrowseKey{Kind: "bogus"}, 1)

	assert.Equal(t, []string{"genre:action:1", "category:tv:2", "az:all:3"}, fake.Calls())
	assert.Equal(t, CodeInvalidParams, ErrorCode(err))
}

func streamOK(url string) domain.Envelope[domain.StreamingResponse] {
	return domain.Succeeded(domain.StreamingResponse{Link: &domain.StreamLink{File: url, Type: "hls"}})
}

func TestStreamWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("primary ok", func(t *testing.T) {
		fake := &fakeCatalog{stream: func(context.Context, string, string, string) (domain.Envelope[domain.StreamingResponse], error) {
			return streamOK("https://cdn/a.m3u8"), nil
		}}
		env, used, err := NewCatalogService(fake, zerolog.Nop()).StreamWithFallback(ctx, "ep", "hd-1", "sub")
		require.NoError(t, err)
		assert.True(t, env.OK())
		assert.Equal(t, "hd-1", used)
		assert.Len(t, fake.Calls(), 1)
	})

	t.Run("fallback succeeds", func(t *testing.T) {
		fake := &fakeCatalog{stream: func(_ context.Context, _, server, _ string) (domain.Envelope[domain.StreamingResponse], error) {
			if server == "hd-1" {
				return domain.Failed[domain.StreamingResponse](500), nil
			}
			return streamOK("https://cdn/b.m3u8"), nil
		}}
		env, used, err := NewCatalogService(fake, zerolog.Nop()).StreamWithFallback(ctx, "ep", "hd-1", "sub")
		require.NoError(t, err)
		assert.Equal(t, "hd-2", used)
		assert.Equal(t, "https://cdn/b.m3u8", env.Data.Link.File)
		assert.Equal(t, []string{"stream:ep:hd-1:sub", "stream:ep:hd-2:sub"}, fake.Calls())
	})

	t.Run("both fail keeps primary", func(t *testing.T) {
		fake := &fakeCatalog{}
		env, used, _ := NewCatalogService(fake, zerolog.Nop()).StreamWithFallback(ctx, "ep", "hd-1", "dub")
		assert.False(t, env.Success)
		assert.Equal(t, "hd-1", used)
		assert.Len(t, fake.Calls(), 2)
	})

	t.Run("no fallback for hd-2", func(t *testing.T) {
		fake := &fakeCatalog{}
		_, used, _ := NewCatalogService(fake, zerolog.Nop()).StreamWithFallback(ctx, "ep", "hd-2", "sub")
		assert.Equal(t, "hd-2", used)
		assert.Equal(t, []string{"stream:ep:hd-2:sub"}, fake.Calls())
	})
}
