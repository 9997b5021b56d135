package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateHolder_SubscribeGetsCurrentThenLatest(t *testing.T) {
	h := NewStateHolder(1)
	ch, cancel := h.Subscribe()
	defer cancel()

	require.Equal(t, 1, <-ch)

	h.Set(2)
	h.Set(3)
	// Les valeurs intermédiaires peuvent être sautées, jamais la dernière.
	require.Equal(t, 3, <-ch)
	assert.Equal(t, 3, h.Get())

	got := h.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 30, got)
	assert.Equal(t, 30, <-ch)

	cancel()
	_, ok := <-ch
	assert.False(t, ok, "channel must be closed after cancel")
	cancel()
}

func TestFetchGroup_StaleCommitIsDropped(t *testing.T) {
	g := newFetchGroup(zerolog.Nop())
	defer g.Close()

	started := make(chan uint64, 2)
	block := make(chan struct{})
	run := func(ctx context.Context, gen uint64, _ zerolog.Logger) {
		started <- gen
		<-block
	}
	require.True(t, g.Start(nil, run))
	first := <-started
	require.True(t, g.Start(nil, run))
	second := <-started
	close(block)
	g.Wait()

	assert.False(t, g.Commit(first, func() { t.Fatalf("stale generation applied") }))
	applied := false
	assert.True(t, g.Commit(second, func() { applied = true }))
	assert.True(t, applied)

	assert.False(t, g.Start(func() bool { return false }, run), "refused prepare must not start")
	assert.True(t, g.Commit(second, func() {}), "refused prepare must not bump the generation")
}

func TestFetchGroup_StartCancelsPrevious(t *testing.T) {
	g := newFetchGroup(zerolog.Nop())
	canceled := make(chan error, 1)
	ready := make(chan struct{})
	g.Start(nil, func(ctx context.Context, _ uint64, _ zerolog.Logger) {
		close(ready)
		<-ctx.Done()
		canceled <- ctx.Err()
	})
	<-ready
	g.Start(nil, nil)
	assert.ErrorIs(t, <-canceled, context.Canceled)

	g.Close()
	assert.False(t, g.Start(nil, nil), "closed group refuses new fetches")
}

func TestRunBestEffort(t *testing.T) {
	boom := errors.New("boom")
	res := RunBestEffort(context.Background(), zerolog.Nop(), "characters", func(context.Context) error { return boom })
	assert.False(t, res.OK())
	assert.Equal(t, "characters", res.Task)
	assert.ErrorIs(t, res.Err, boom)

	res = RunBestEffort(context.Background(), zerolog.Nop(), "episodes", func(context.Context) error { return nil })
	assert.True(t, res.OK())
}

func TestErrorCode(t *testing.T) {
	err := invalidParams("missing title", nil)
	assert.Equal(t, CodeInvalidParams, ErrorCode(err))
	assert.Equal(t, "missing title", err.Error())
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}
