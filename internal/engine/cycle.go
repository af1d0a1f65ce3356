package engine

import (
	"time"

	"political-game-engine/internal/model"
)

// Schedule holds the daily cycle hours. Two cycles alternate per day:
// morning (deadline 12:00, results 13:00) and evening (deadline 18:00,
// results 19:00).
type Schedule struct {
	MorningDeadlineHour int
	MorningResultsHour  int
	EveningDeadlineHour int
	EveningResultsHour  int
	Location            *time.Location
}

// DefaultSchedule returns the standard two-cycle day.
func DefaultSchedule(loc *time.Location) Schedule {
	if loc == nil {
		loc = time.Local
	}
	return Schedule{
		MorningDeadlineHour: 12,
		MorningResultsHour:  13,
		EveningDeadlineHour: 18,
		EveningResultsHour:  19,
		Location:            loc,
	}
}

// CycleWindow is a computed cycle slot: the deterministic successor of a
// predecessor, or the bootstrap slot for a wall-clock instant.
type CycleWindow struct {
	Type        string
	Date        time.Time
	Deadline    time.Time
	ResultsTime time.Time
}

func (s Schedule) at(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, s.loc())
}

func (s Schedule) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// window builds the slot for a cycle type on a date.
func (s Schedule) window(cycleType string, date time.Time) CycleWindow {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc())
	if cycleType == model.CycleMorning {
		return CycleWindow{
			Type:        model.CycleMorning,
			Date:        day,
			Deadline:    s.at(day, s.MorningDeadlineHour),
			ResultsTime: s.at(day, s.MorningResultsHour),
		}
	}
	return CycleWindow{
		Type:        model.CycleEvening,
		Date:        day,
		Deadline:    s.at(day, s.EveningDeadlineHour),
		ResultsTime: s.at(day, s.EveningResultsHour),
	}
}

// Successor computes the cycle slot that follows the given cycle:
// morning is followed by the same day's evening, evening by the next
// day's morning.
func (s Schedule) Successor(prev *model.Cycle) CycleWindow {
	if prev.Type == model.CycleMorning {
		return s.window(model.CycleEvening, prev.Date)
	}
	return s.window(model.CycleMorning, prev.Date.AddDate(0, 0, 1))
}

// Bootstrap computes the cycle slot that should be open at the given
// instant, used only when the world has no cycle yet. Past the evening
// deadline the next day's morning cycle starts.
func (s Schedule) Bootstrap(now time.Time) CycleWindow {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc())
	switch {
	case now.Before(s.at(day, s.MorningDeadlineHour)):
		return s.window(model.CycleMorning, day)
	case now.Before(s.at(day, s.EveningDeadlineHour)):
		return s.window(model.CycleEvening, day)
	default:
		return s.window(model.CycleMorning, day.AddDate(0, 0, 1))
	}
}

// SubmissionOpen reports whether submissions are accepted for the cycle
// at the given instant.
func SubmissionOpen(c *model.Cycle, now time.Time) bool {
	return c.IsOpen && now.Before(c.Deadline)
}
