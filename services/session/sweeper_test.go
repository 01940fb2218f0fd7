package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweeper_StartStop(t *testing.T) {
	store, _ := newTestStore(Config{})
	sweeper := NewSweeper(store, DefaultSweepSchedule, zap.NewNop())

	require.NoError(t, sweeper.Start(context.Background()))
	assert.True(t, sweeper.IsRunning())

	sweeper.Stop()
	assert.False(t, sweeper.IsRunning())
	sweeper.Stop()
}

func TestSweeper_Restart(t *testing.T) {
	store, _ := newTestStore(Config{})
	sweeper := NewSweeper(store, DefaultSweepSchedule, zap.NewNop())

	require.NoError(t, sweeper.Start(context.Background()))
	first := sweeper.doneCh
	sweeper.Stop()

	select {
	case <-first:
	default:
		t.Fatal("context watcher still running after Stop")
	}

	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()

	assert.True(t, sweeper.IsRunning())
	assert.Equal(t, 1, sweeper.jobs())
}

func TestSweeper_StartTwiceKeepsOneJob(t *testing.T) {
	store, _ := newTestStore(Config{})
	sweeper := NewSweeper(store, DefaultSweepSchedule, zap.NewNop())

	require.NoError(t, sweeper.Start(context.Background()))
	require.NoError(t, sweeper.Start(context.Background()))
	defer sweeper.Stop()

	assert.Equal(t, 1, sweeper.jobs())
}

func TestSweeper_Disabled(t *testing.T) {
	store, _ := newTestStore(Config{})
	sweeper := NewSweeper(store, "", zap.NewNop())

	require.NoError(t, sweeper.Start(context.Background()))
	assert.False(t, sweeper.IsRunning())
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	store, _ := newTestStore(Config{})
	sweeper := NewSweeper(store, "every ten minutes", zap.NewNop())

	err := sweeper.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep schedule")
}

func TestSweeper_StopsWithContext(t *testing.T) {
	store, _ := newTestStore(Config{})
	sweeper := NewSweeper(store, "@every 1h", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, sweeper.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !sweeper.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestSweeper_RunRemovesExpired(t *testing.T) {
	store, clock := newTestStore(Config{TTL: time.Minute})
	store.GetOrCreate("")
	store.GetOrCreate("")
	clock.Advance(2 * time.Minute)

	sweeper := NewSweeper(store, DefaultSweepSchedule, zap.NewNop())
	sweeper.run()

	assert.Equal(t, 0, store.Len())
}
