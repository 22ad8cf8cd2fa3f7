package scheduler

import (
	"time"

	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
)

// Interval returns the polling interval that currently applies to a
// tournament: the base interval by default, the active interval from one day
// before the start date through the end of the end date.
func (s *Scheduler) Interval(t *tournamentModel.Tournament, now time.Time) time.Duration {
	if t.StartDate == nil || t.EndDate == nil {
		return s.cfg.BaseInterval
	}

	windowStart := t.StartDate.Add(-24 * time.Hour)
	windowEnd := endOfDay(*t.EndDate)

	if now.Before(windowStart) {
		return s.cfg.BaseInterval
	}
	if !now.After(windowEnd) {
		return s.cfg.ActiveInterval
	}
	return s.cfg.BaseInterval
}

// ShouldRun reports whether a tournament is due for reconciliation.
func (s *Scheduler) ShouldRun(t *tournamentModel.Tournament, now time.Time) bool {
	if t.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*t.LastSyncedAt) >= s.Interval(t, now)
}

// NextRunTime estimates when the tournament will next be reconciled. The
// estimate never lands in the past: when the interval just shrank (the
// tournament entered its active window), the stale larger schedule is not
// waited out.
func (s *Scheduler) NextRunTime(t *tournamentModel.Tournament, now time.Time) time.Time {
	if t.LastSyncedAt == nil {
		return now
	}
	next := t.LastSyncedAt.Add(s.Interval(t, now))
	if next.Before(now) {
		return now
	}
	return next
}

// endOfDay widens a date-only timestamp to the last instant of that day.
// Timestamps that already carry a time of day pass through unchanged.
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
