// Package scoring converts a finished task's timing, deadline pressure,
// priority and difficulty into EXP and honor awards. All functions are pure
// and never fail on absent optional fields.
package scoring

import (
	"time"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
)

// BaseHonor anchors the honor formula; bonuses and penalties scale off it.
const BaseHonor = 50

// HonorMin and HonorMax bound any single award.
const (
	HonorMin = -100
	HonorMax = 200
)

var priorityMultiplier = map[domain.Priority]float64{
	domain.PriorityLow:    1.0,
	domain.PriorityMedium: 1.2,
	domain.PriorityHigh:   1.5,
}

var difficultyMultiplier = map[domain.Difficulty]float64{
	domain.DifficultyLow:    0.8,
	domain.DifficultyMedium: 1.0,
	domain.DifficultyHigh:   1.3,
}

// Exp returns the experience award for hours spent in work: 100 EXP per
// hour, truncated.
func Exp(hours float64) int {
	if hours <= 0 {
		return 0
	}
	return int(hours * 100)
}

// Honor returns the honor award for a task that accrued hours of in-work
// time, judged at instant now.
//
// The award starts at BaseHonor, gains or loses up to BaseHonor for finishing
// under or over the time estimate, gains or loses up to BaseHonor for
// deadline margin (penalty applies only when now is past the deadline), is
// scaled by the difficulty and priority multipliers, and is clamped to
// [HonorMin, HonorMax]. A missing deadline means the task can never be late
// and the deadline window defaults to the time estimate; a zero estimate
// defaults to one hour.
func Honor(task *domain.Task, hours float64, now time.Time) int {
	atc := task.ApproxTime
	if atc <= 0 {
		atc = 1
	}

	d := atc
	if task.Deadline != nil {
		d = task.Deadline.Sub(task.CreatedAt).Hours()
	}

	perfRatio := hours / atc
	deadlineRatio := 1.0
	if d != 0 {
		deadlineRatio = hours / d
	}

	late := task.Deadline != nil && now.After(*task.Deadline)

	honor := float64(BaseHonor)
	if perfRatio <= 1 {
		honor += (1 - perfRatio) * BaseHonor
	} else {
		honor -= (perfRatio - 1) * BaseHonor
	}
	if !late {
		honor += (1 - deadlineRatio) * BaseHonor
	} else {
		honor -= (deadlineRatio - 1) * BaseHonor
	}

	honor *= multiplier(difficultyMultiplier, task.Difficulty)
	honor *= multiplier(priorityMultiplier, task.Priority)

	return clamp(int(honor), HonorMin, HonorMax)
}

// multiplier defends against unknown enum values by falling back to 1.0.
func multiplier[K comparable](m map[K]float64, k K) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return 1.0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
