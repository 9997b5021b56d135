package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func newPlayer(fake *fakeCatalog, prefs domain.Preferences) *PlayerController {
	return NewPlayerController(NewCatalogService(fake, zerolog.Nop()), prefs, zerolog.Nop())
}

func TestPlayerController_FallbackBecomesCurrentServer(t *testing.T) {
	fake := &fakeCatalog{stream: func(_ context.Context, ep, server, _ string) (domain.Envelope[domain.StreamingResponse], error) {
		if server == "hd-1" {
			return domain.Failed[domain.StreamingResponse](500), nil
		}
		env := streamOK("https://cdn/" + ep + ".m3u8")
		env.Data.Tracks = []domain.Track{{File: "https://cdn/en.vtt", Kind: "captions", Label: "English", Default: true}}
		return env, nil
	}}
	c := newPlayer(fake, domain.DefaultPreferences())
	defer c.Close()

	c.LoadStream("ep1", "", "")
	c.Wait()

	st := c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "hd-2", st.Server)
	assert.Equal(t, "sub", st.Category)
	require.NotNil(t, st.Stream)
	assert.Equal(t, "https://cdn/ep1.m3u8", st.Stream.URL)
	assert.Len(t, st.Stream.Tracks, 1)
	assert.NotNil(t, st.Stream.Headers)

	c.LoadStream("ep2", "", "")
	c.Wait()
	assert.Equal(t, []string{"stream:ep1:hd-1:sub", "stream:ep1:hd-2:sub", "stream:ep2:hd-2:sub"}, fake.Calls())
}

func TestPlayerController_BothServersFail(t *testing.T) {
	fake := &fakeCatalog{}
	c := newPlayer(fake, domain.DefaultPreferences())
	defer c.Close()

	c.LoadStream("ep1", "hd-1", "dub")
	c.Wait()

	st := c.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "Failed to load stream (Server hd-1)", st.Message)
	assert.Len(t, fake.Calls(), 2, "fallback is tried exactly once")

	require.True(t, c.Retry())
	c.Wait()
	assert.Len(t, fake.Calls(), 4)
}

func TestPlayerController_Messages(t *testing.T) {
	fake := &fakeCatalog{stream: func(context.Context, string, string, string) (domain.Envelope[domain.StreamingResponse], error) {
		return domain.Succeeded(domain.StreamingResponse{}), nil
	}}
	c := newPlayer(fake, domain.Preferences{PreferredServer: "hd-2"})
	defer c.Close()

	c.LoadStream("  ", "", "")
	c.Wait()
	assert.Equal(t, "Invalid episode ID", c.State().Message)
	assert.Empty(t, fake.Calls())

	c.LoadStream("ep1", "", "")
	c.Wait()
	st := c.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "No video URL found", st.Message)
	assert.Equal(t, "hd-2", st.Server)
}

func TestPlayerController_SwitchAndPlaylist(t *testing.T) {
	fake := &fakeCatalog{stream: func(_ context.Context, ep, _, _ string) (domain.Envelope[domain.StreamingResponse], error) {
		return streamOK("https://cdn/" + ep), nil
	}}
	c := newPlayer(fake, domain.DefaultPreferences())
	defer c.Close()

	c.SetPlaylist([]domain.Episode{{Number: 1, ID: "a?ep=1"}, {Number: 2, ID: "a?ep=2"}})
	assert.False(t, c.PlayNext(), "no current episode")

	c.LoadStream("a?ep=1", "", "")
	c.Wait()
	assert.False(t, c.SwitchServer("hd-1"), "same server")
	assert.False(t, c.PlayPrevious(), "first episode")

	require.True(t, c.SwitchCategory("dub"))
	c.Wait()
	require.True(t, c.PlayNext())
	c.Wait()
	st := c.State()
	assert.Equal(t, "a?ep=2", st.EpisodeID)
	assert.Equal(t, "dub", st.Category)
	assert.False(t, c.PlayNext(), "last episode")

	require.True(t, c.SwitchServer("hd-3"))
	c.Wait()
	assert.Equal(t, "hd-3", c.State().Server)
	assert.Equal(t, []string{
		"stream:a?ep=1:hd-1:sub",
		"stream:a?ep=1:hd-1:dub",
		"stream:a?ep=2:hd-1:dub",
		"stream:a?ep=2:hd-3:dub",
	}, fake.Calls())
}
