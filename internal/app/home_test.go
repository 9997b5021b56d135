package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func TestHomeController_LoadAndRetry(t *testing.T) {
	ok := false
	fake := &fakeCatalog{home: func(context.Context) (domain.Envelope[domain.HomeData], error) {
		if !ok {
			return domain.Failed[domain.HomeData](503), nil
		}
		return domain.Succeeded(domain.HomeData{Genres: []string{"Action"}, TopAiring: makeAnimes("air", 1)}), nil
	}}
	c := NewHomeController(NewCatalogService(fake, zerolog.Nop()), zerolog.Nop())
	defer c.Close()

	c.Load()
	c.Wait()
	st := c.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "Failed to load data", st.Message)

	ok = true
	c.Load()
	c.Wait()
	st = c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	require.NotNil(t, st.Feed)
	assert.Equal(t, []string{"Action"}, st.Feed.Genres)
	assert.Len(t, st.Feed.TopAiring, 1)
}
