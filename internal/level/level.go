// Package level derives a user's level, progress bar and badge from
// accumulated EXP. All functions are total for exp >= 0.
package level

import "math"

// Badge is the tier shown next to a profile.
type Badge string

const (
	BadgeGold   Badge = "gold"
	BadgeSilver Badge = "silver"
	BadgeBronze Badge = "bronze"
	BadgeNone   Badge = "none"
)

// FromExp converts cumulative EXP to a level: floor(sqrt(exp/100)).
func FromExp(exp int) int {
	return int(math.Sqrt(float64(exp) / 100))
}

// ToExp is the inverse curve: the EXP floor of a level.
func ToExp(level int) int {
	return level * level * 100
}

// BarPercent returns progress within the current level as an integer
// percentage in [0, 100).
func BarPercent(exp int) int {
	lvl := FromExp(exp)
	floor := ToExp(lvl)
	ceil := ToExp(lvl + 1)
	if ceil == floor {
		return 0
	}
	return 100 * (exp - floor) / (ceil - floor)
}

// ForLevel maps a level to its badge tier.
func ForLevel(level int) Badge {
	switch {
	case level >= 50:
		return BadgeGold
	case level >= 30:
		return BadgeSilver
	case level >= 10:
		return BadgeBronze
	default:
		return BadgeNone
	}
}
