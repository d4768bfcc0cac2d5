// Package chaos replays captured traffic against a target while injecting
// faults to exercise resilience.
package chaos

import (
	"strings"
	"time"
)

// Level selects the fault-injection intensity for a replay run.
type Level string

const (
	LevelMild     Level = "mild"
	LevelModerate Level = "moderate"
	LevelExtreme  Level = "extreme"
)

// ParseLevel maps a level name to a Level. Any unrecognized name maps to
// LevelModerate; defaulting is deliberate, not an error.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "mild":
		return LevelMild
	case "extreme":
		return LevelExtreme
	default:
		return LevelModerate
	}
}

// FailureRate is the probability that a given replay is chosen for fault
// injection.
func (l Level) FailureRate() float64 {
	switch l {
	case LevelMild:
		return 0.05
	case LevelExtreme:
		return 0.30
	default:
		return 0.15
	}
}

// MaxDelay is the upper bound for injected latency.
func (l Level) MaxDelay() time.Duration {
	switch l {
	case LevelMild:
		return 100 * time.Millisecond
	case LevelExtreme:
		return 2000 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}
