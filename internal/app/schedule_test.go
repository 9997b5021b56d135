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

func TestScheduleController_LoadAndNavigate(t *testing.T) {
	fake := &fakeCatalog{schedule: func(_ context.Context, date string) (domain.Envelope[domain.ScheduleResponse], error) {
		if date == "2024-01-03" {
			return domain.Failed[domain.ScheduleResponse](404), nil
		}
		return domain.Succeeded(domain.ScheduleResponse{ScheduledAnimes: []domain.ScheduledAnime{
			{ID: "a", Time: "10:00", Name: "A"},
			{ID: "b", Time: "12:30", Name: "B"},
		}}), nil
	}}
	c := NewScheduleController(NewCatalogService(fake, zerolog.Nop()), zerolog.Nop())
	defer c.Close()

	c.Load(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC))
	c.Wait()
	st := c.State()
	require.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "2024-01-01", st.Date)
	assert.Len(t, st.Animes, 2)

	c.NextDay()
	c.Wait()
	assert.Equal(t, "2024-01-02", c.State().Date)

	c.NextDay()
	c.Wait()
	st = c.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "No schedule data found", st.Message)
	assert.Equal(t, "2024-01-03", c.Current().Format(DateLayout))

	c.PreviousDay()
	c.Wait()
	assert.Equal(t, PhaseSuccess, c.State().Phase)

	assert.Equal(t, []string{"schedule:2024-01-01", "schedule:2024-01-02", "schedule:2024-01-03", "schedule:2024-01-02"}, fake.Calls())
}

func TestScheduleController_ServerDateWins(t *testing.T) {
	fake := &fakeCatalog{schedule: func(context.Context, string) (domain.Envelope[domain.ScheduleResponse], error) {
		env := domain.Succeeded(domain.ScheduleResponse{Date: "2024-01-01"})
		env.Success = false
		return env, nil
	}}
	c := NewScheduleController(NewCatalogService(fake, zerolog.Nop()), zerolog.Nop())
	defer c.Close()

	c.Load(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	c.Wait()
	st := c.State()
	assert.Equal(t, PhaseSuccess, st.Phase, "data presence is enough")
	assert.Equal(t, "2024-01-01", st.Date)
	assert.NotNil(t, st.Animes)
}
