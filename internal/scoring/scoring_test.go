package scoring_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/internal/scoring"
)

var created = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTask(priority domain.Priority, difficulty domain.Difficulty, approx float64, deadline *time.Time) *domain.Task {
	return &domain.Task{
		ID:         "task-1",
		Priority:   priority,
		Difficulty: difficulty,
		ApproxTime: approx,
		Deadline:   deadline,
		CreatedAt:  created,
	}
}

func deadlineAfter(d time.Duration) *time.Time {
	t := created.Add(d)
	return &t
}

func TestExp(t *testing.T) {
	tests := []struct {
		hours float64
		want  int
	}{
		{0, 0},
		{-1, 0},
		{1, 100},
		{2.5, 250},
		{0.499, 49},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.3fh", tt.hours), func(t *testing.T) {
			assert.Equal(t, tt.want, scoring.Exp(tt.hours))
		})
	}
}

func TestHonor_ReferenceScenario(t *testing.T) {
	// medium/medium, 2h estimate, deadline 4h out, finished in 1h on time:
	// base 50 + perf bonus 25 + deadline bonus 37.5, multipliers 1.0 and 1.2.
	task := newTask(domain.PriorityMedium, domain.DifficultyMedium, 2.0, deadlineAfter(4*time.Hour))
	got := scoring.Honor(task, 1.0, created.Add(time.Hour))
	assert.Equal(t, 135, got)
}

func TestHonor_OverrunAndLate(t *testing.T) {
	// 8h spent against a 2h estimate and a 4h deadline, judged after the
	// deadline: 50 - 150 - 50 = -150, difficulty 1.3, priority 1.5 → clamped.
	task := newTask(domain.PriorityHigh, domain.DifficultyHigh, 2.0, deadlineAfter(4*time.Hour))
	got := scoring.Honor(task, 8.0, created.Add(10*time.Hour))
	assert.Equal(t, scoring.HonorMin, got)
}

func TestHonor_NoDeadlineNeverLate(t *testing.T) {
	// Without a deadline the window defaults to the estimate, so finishing
	// exactly on estimate earns the bare base honor.
	task := newTask(domain.PriorityLow, domain.DifficultyMedium, 3.0, nil)
	got := scoring.Honor(task, 3.0, created.Add(100*time.Hour))
	assert.Equal(t, scoring.BaseHonor, got)
}

func TestHonor_ZeroApproxTimeDefaults(t *testing.T) {
	task := newTask(domain.PriorityLow, domain.DifficultyMedium, 0, nil)
	// Defaults make ATC = D = 1h: perf ratio 0.5 gives +25, deadline ratio
	// 0.5 gives +25.
	got := scoring.Honor(task, 0.5, created.Add(time.Hour))
	assert.Equal(t, 100, got)
}

func TestHonor_InstantFinishHitsUpperClamp(t *testing.T) {
	task := newTask(domain.PriorityHigh, domain.DifficultyHigh, 2.0, deadlineAfter(40*time.Hour))
	// Zero hours: 50 + 50 + 50 = 150, ×1.3 ×1.5 = 292.5 → clamped to 200.
	got := scoring.Honor(task, 0, created)
	assert.Equal(t, scoring.HonorMax, got)
}

func TestHonor_BoundedForAllCombinations(t *testing.T) {
	priorities := []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh}
	difficulties := []domain.Difficulty{domain.DifficultyLow, domain.DifficultyMedium, domain.DifficultyHigh}
	hours := []float64{0, 0.25, 1, 2, 7.5, 40, 1000}
	deadlines := []*time.Time{nil, deadlineAfter(time.Hour), deadlineAfter(72 * time.Hour)}
	nows := []time.Time{created, created.Add(2 * time.Hour), created.Add(200 * time.Hour)}

	for _, p := range priorities {
		for _, d := range difficulties {
			for _, h := range hours {
				for _, dl := range deadlines {
					for _, now := range nows {
						task := newTask(p, d, 2.0, dl)
						got := scoring.Honor(task, h, now)
						assert.GreaterOrEqual(t, got, scoring.HonorMin,
							"p=%s d=%s h=%v dl=%v now=%v", p, d, h, dl, now)
						assert.LessOrEqual(t, got, scoring.HonorMax,
							"p=%s d=%s h=%v dl=%v now=%v", p, d, h, dl, now)
					}
				}
			}
		}
	}
}

func TestHonor_UnknownEnumFallsBackToNeutralMultiplier(t *testing.T) {
	task := newTask(domain.Priority("unset"), domain.Difficulty("unset"), 2.0, deadlineAfter(4*time.Hour))
	got := scoring.Honor(task, 1.0, created.Add(time.Hour))
	// Same as the reference scenario but with both multipliers neutral.
	assert.Equal(t, 112, got)
}
