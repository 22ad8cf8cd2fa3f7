package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appConfig "github.com/festy23/tournament_sync/internal/config"
	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
)

func testScheduler() *Scheduler {
	cfg := appConfig.SchedulerConfig{
		BaseInterval:      24 * time.Hour,
		ActiveInterval:    time.Hour,
		TickInterval:      30 * time.Minute,
		MaxConcurrentRuns: 4,
	}
	return New(cfg, nil, nil, zap.NewNop().Sugar())
}

func tournamentWithDates(start, end time.Time) *tournamentModel.Tournament {
	return &tournamentModel.Tournament{StartDate: &start, EndDate: &end}
}

func TestInterval_ActiveWindow(t *testing.T) {
	s := testScheduler()
	day := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC) // start date D
	tournament := tournamentWithDates(day, day.AddDate(0, 0, 2))

	cases := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"two days before start", day.AddDate(0, 0, -2).Add(12 * time.Hour), 24 * time.Hour},
		{"one day before start", day.AddDate(0, 0, -1).Add(12 * time.Hour), time.Hour},
		{"start day", day.Add(12 * time.Hour), time.Hour},
		{"end day", day.AddDate(0, 0, 2).Add(12 * time.Hour), time.Hour},
		{"day after end", day.AddDate(0, 0, 3).Add(12 * time.Hour), 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Interval(tournament, tc.now))
		})
	}
}

func TestInterval_UnknownDates(t *testing.T) {
	s := testScheduler()
	now := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 24*time.Hour, s.Interval(&tournamentModel.Tournament{}, now))

	start := now.AddDate(0, 0, -1)
	assert.Equal(t, 24*time.Hour, s.Interval(&tournamentModel.Tournament{StartDate: &start}, now))
}

func TestInterval_EndDateWithTimeOfDay(t *testing.T) {
	s := testScheduler()
	start := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 12, 15, 0, 0, 0, time.UTC)
	tournament := tournamentWithDates(start, end)

	// A date-only end widens to the whole day; a real timestamp does not
	assert.Equal(t, time.Hour, s.Interval(tournament, end.Add(-time.Hour)))
	assert.Equal(t, 24*time.Hour, s.Interval(tournament, end.Add(3*time.Hour)))
}

func TestShouldRun(t *testing.T) {
	s := testScheduler()
	day := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(12 * time.Hour) // inside the active window
	tournament := tournamentWithDates(day, day.AddDate(0, 0, 2))

	t.Run("never synced", func(t *testing.T) {
		assert.True(t, s.ShouldRun(tournament, now))
	})

	t.Run("synced recently inside active window", func(t *testing.T) {
		synced := now.Add(-30 * time.Minute)
		tournament.LastSyncedAt = &synced
		assert.False(t, s.ShouldRun(tournament, now))
	})

	t.Run("stale inside active window", func(t *testing.T) {
		synced := now.Add(-2 * time.Hour)
		tournament.LastSyncedAt = &synced
		assert.True(t, s.ShouldRun(tournament, now))
	})

	t.Run("outside window needs a full base interval", func(t *testing.T) {
		outside := day.AddDate(0, 0, 5)
		synced := outside.Add(-12 * time.Hour)
		tournament.LastSyncedAt = &synced
		assert.False(t, s.ShouldRun(tournament, outside))

		synced = outside.Add(-25 * time.Hour)
		tournament.LastSyncedAt = &synced
		assert.True(t, s.ShouldRun(tournament, outside))
	})
}

func TestNextRunTime(t *testing.T) {
	s := testScheduler()
	day := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(12 * time.Hour)
	tournament := tournamentWithDates(day, day.AddDate(0, 0, 2))

	t.Run("never synced runs now", func(t *testing.T) {
		assert.Equal(t, now, s.NextRunTime(tournament, now))
	})

	t.Run("future estimate", func(t *testing.T) {
		synced := now.Add(-20 * time.Minute)
		tournament.LastSyncedAt = &synced
		assert.Equal(t, synced.Add(time.Hour), s.NextRunTime(tournament, now))
	})

	t.Run("shrunk interval clamps to now", func(t *testing.T) {
		// Last synced 5h ago under the 24h schedule; the tournament has since
		// entered its active window, so lastSynced+1h is already in the past.
		synced := now.Add(-5 * time.Hour)
		tournament.LastSyncedAt = &synced
		assert.Equal(t, now, s.NextRunTime(tournament, now))
	})
}

func TestStatusFor(t *testing.T) {
	s := testScheduler()
	day := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(12 * time.Hour)
	tournament := tournamentWithDates(day, day.AddDate(0, 0, 2))
	synced := now.Add(-20 * time.Minute)
	tournament.LastSyncedAt = &synced

	status := s.StatusFor(tournament, now)
	assert.Equal(t, &synced, status.LastSyncedAt)
	assert.Equal(t, synced.Add(time.Hour), status.NextRunAt)
	assert.Equal(t, 1.0, status.IntervalHours)

	outside := day.AddDate(0, 0, 10)
	tournament.LastSyncedAt = nil
	status = s.StatusFor(tournament, outside)
	assert.Equal(t, outside, status.NextRunAt)
	assert.Equal(t, 24.0, status.IntervalHours)
}
