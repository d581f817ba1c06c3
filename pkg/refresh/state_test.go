package refresh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glasswing/content-cache/pkg/model"
)

// TestStateCooldown verifies the minimum inter-refresh spacing guard.
func TestStateCooldown(t *testing.T) {
	s := NewState()
	t0 := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	minInterval := 5 * time.Minute

	// Never refreshed: no cooldown.
	require.False(t, s.InCooldown(model.EntityArticles, t0, minInterval))

	require.True(t, s.TryStart(model.EntityArticles))
	s.Finish(model.EntityArticles, t0, true)

	require.True(t, s.InCooldown(model.EntityArticles, t0.Add(4*time.Minute), minInterval))
	require.False(t, s.InCooldown(model.EntityArticles, t0.Add(5*time.Minute), minInterval))

	// Cooldown is per entity.
	require.False(t, s.InCooldown(model.EntityTeam, t0.Add(time.Minute), minInterval))
}

// TestStateTryStart verifies only one refresh per entity runs at a time.
func TestStateTryStart(t *testing.T) {
	s := NewState()

	require.True(t, s.TryStart(model.EntityArticles))
	require.False(t, s.TryStart(model.EntityArticles))
	require.True(t, s.TryStart(model.EntityTeam))

	s.Finish(model.EntityArticles, time.Now(), true)
	require.True(t, s.TryStart(model.EntityArticles))
}

// TestStateFailedFinishKeepsTimestamp verifies a failed attempt does not
// restart the cooldown window, so the next tick retries immediately.
func TestStateFailedFinishKeepsTimestamp(t *testing.T) {
	s := NewState()
	t0 := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	require.True(t, s.TryStart(model.EntityQuotes))
	s.Finish(model.EntityQuotes, t0, true)
	require.Equal(t, t0, s.LastRefreshAt(model.EntityQuotes))

	require.True(t, s.TryStart(model.EntityQuotes))
	s.Finish(model.EntityQuotes, t0.Add(10*time.Minute), false)
	require.Equal(t, t0, s.LastRefreshAt(model.EntityQuotes))
}

// TestStateResetAll zeroes every cooldown for the emergency path.
func TestStateResetAll(t *testing.T) {
	s := NewState()
	t0 := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	for _, e := range model.Entities() {
		require.True(t, s.TryStart(e))
		s.Finish(e, t0, true)
	}
	s.ResetAll()

	for _, e := range model.Entities() {
		require.False(t, s.InCooldown(e, t0, time.Hour))
		require.True(t, s.LastRefreshAt(e).IsZero())
	}
}
