package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// stubHistory counts stored alert timestamps at or after since.
type stubHistory struct {
	alerts []time.Time
	err    error
}

func (s *stubHistory) CountRecentAlerts(_ context.Context, _, _ string, _ models.AlertLevel, since time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, at := range s.alerts {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func dailyRule() models.AlertRule {
	return models.AlertRule{
		ID:             "rule-1",
		UserID:         "user-1",
		AlertFrequency: models.FrequencyDaily,
	}
}

func TestGateSuppressesInsideWindow(t *testing.T) {
	now := time.Now()
	history := &stubHistory{alerts: []time.Time{now.Add(-2 * time.Hour)}}
	gate := NewGate(history)
	gate.now = func() time.Time { return now }

	ok, err := gate.ShouldAlert(context.Background(), dailyRule(), "Oak Ridge", models.LevelRed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateAllowsAfterWindowElapses(t *testing.T) {
	now := time.Now()
	history := &stubHistory{alerts: []time.Time{now.Add(-25 * time.Hour)}}
	gate := NewGate(history)
	gate.now = func() time.Time { return now }

	ok, err := gate.ShouldAlert(context.Background(), dailyRule(), "Oak Ridge", models.LevelRed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateImmediateBypassesHistory(t *testing.T) {
	now := time.Now()
	history := &stubHistory{alerts: []time.Time{now.Add(-time.Minute)}}
	gate := NewGate(history)
	gate.now = func() time.Time { return now }

	rule := dailyRule()
	rule.AlertFrequency = models.FrequencyImmediate

	ok, err := gate.ShouldAlert(context.Background(), rule, "Oak Ridge", models.LevelRed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateHourlyWindow(t *testing.T) {
	now := time.Now()
	history := &stubHistory{alerts: []time.Time{now.Add(-90 * time.Minute)}}
	gate := NewGate(history)
	gate.now = func() time.Time { return now }

	rule := dailyRule()
	rule.AlertFrequency = models.FrequencyHourly

	ok, err := gate.ShouldAlert(context.Background(), rule, "Oak Ridge", models.LevelYellow)
	require.NoError(t, err)
	assert.True(t, ok)

	history.alerts = append(history.alerts, now.Add(-30*time.Minute))
	ok, err = gate.ShouldAlert(context.Background(), rule, "Oak Ridge", models.LevelYellow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGatePropagatesStoreError(t *testing.T) {
	gate := NewGate(&stubHistory{err: errors.New("store down")})

	ok, err := gate.ShouldAlert(context.Background(), dailyRule(), "Oak Ridge", models.LevelRed)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestFrequencyWindowMapping(t *testing.T) {
	cases := []struct {
		freq    models.AlertFrequency
		window  time.Duration
		limited bool
	}{
		{models.FrequencyImmediate, 0, false},
		{models.FrequencyHourly, time.Hour, true},
		{models.FrequencyDaily, 24 * time.Hour, true},
		{models.FrequencyWeekly, 7 * 24 * time.Hour, true},
		{models.AlertFrequency("bogus"), 24 * time.Hour, true},
	}
	for _, tc := range cases {
		window, limited := FrequencyWindow(tc.freq)
		assert.Equal(t, tc.window, window, "frequency %s", tc.freq)
		assert.Equal(t, tc.limited, limited, "frequency %s", tc.freq)
	}
}
