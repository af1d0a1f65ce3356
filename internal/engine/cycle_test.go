package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"political-game-engine/internal/model"
)

func mustSchedule() Schedule {
	return DefaultSchedule(time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSuccessor_MorningToEvening(t *testing.T) {
	s := mustSchedule()
	prev := &model.Cycle{Type: model.CycleMorning, Date: date(2025, time.March, 10)}

	next := s.Successor(prev)
	assert.Equal(t, model.CycleEvening, next.Type)
	assert.Equal(t, date(2025, time.March, 10), next.Date)
	assert.Equal(t, time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC), next.Deadline)
	assert.Equal(t, time.Date(2025, time.March, 10, 19, 0, 0, 0, time.UTC), next.ResultsTime)
}

func TestSuccessor_EveningToNextMorning(t *testing.T) {
	s := mustSchedule()
	prev := &model.Cycle{Type: model.CycleEvening, Date: date(2025, time.March, 10)}

	next := s.Successor(prev)
	assert.Equal(t, model.CycleMorning, next.Type)
	assert.Equal(t, date(2025, time.March, 11), next.Date)
	assert.Equal(t, time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC), next.Deadline)
	assert.Equal(t, time.Date(2025, time.March, 11, 13, 0, 0, 0, time.UTC), next.ResultsTime)
}

func TestSuccessor_MonthRollover(t *testing.T) {
	s := mustSchedule()
	prev := &model.Cycle{Type: model.CycleEvening, Date: date(2025, time.January, 31)}

	next := s.Successor(prev)
	assert.Equal(t, date(2025, time.February, 1), next.Date)
}

func TestBootstrap(t *testing.T) {
	s := mustSchedule()

	tests := []struct {
		name     string
		now      time.Time
		wantType string
		wantDate time.Time
	}{
		{"early morning", time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), model.CycleMorning, date(2025, time.March, 10)},
		{"just before noon", time.Date(2025, 3, 10, 11, 59, 0, 0, time.UTC), model.CycleMorning, date(2025, time.March, 10)},
		{"afternoon", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), model.CycleEvening, date(2025, time.March, 10)},
		{"just before evening deadline", time.Date(2025, 3, 10, 17, 59, 0, 0, time.UTC), model.CycleEvening, date(2025, time.March, 10)},
		{"past evening deadline", time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), model.CycleMorning, date(2025, time.March, 11)},
		{"late night", time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC), model.CycleMorning, date(2025, time.March, 11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.Bootstrap(tt.now)
			assert.Equal(t, tt.wantType, w.Type)
			assert.Equal(t, tt.wantDate, w.Date)
		})
	}
}

// TestSuccessorChainAlternates walks a week of successions and checks the
// morning/evening alternation never skips or doubles a slot.
func TestSuccessorChainAlternates(t *testing.T) {
	s := mustSchedule()
	cur := &model.Cycle{Type: model.CycleMorning, Date: date(2025, time.March, 10)}

	for i := 0; i < 14; i++ {
		next := s.Successor(cur)
		if cur.Type == model.CycleMorning {
			require.Equal(t, model.CycleEvening, next.Type)
			require.Equal(t, cur.Date, next.Date)
		} else {
			require.Equal(t, model.CycleMorning, next.Type)
			require.Equal(t, cur.Date.AddDate(0, 0, 1), next.Date)
		}
		require.True(t, next.Deadline.Before(next.ResultsTime))
		cur = &model.Cycle{Type: next.Type, Date: next.Date}
	}
}

func TestSubmissionOpen(t *testing.T) {
	deadline := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cycle := &model.Cycle{IsOpen: true, Deadline: deadline}

	assert.True(t, SubmissionOpen(cycle, deadline.Add(-time.Minute)))
	assert.False(t, SubmissionOpen(cycle, deadline))
	assert.False(t, SubmissionOpen(cycle, deadline.Add(time.Minute)))

	closed := &model.Cycle{IsOpen: false, Deadline: deadline}
	assert.False(t, SubmissionOpen(closed, deadline.Add(-time.Hour)))
}
