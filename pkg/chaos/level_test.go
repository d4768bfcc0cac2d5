package chaos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"mild", LevelMild},
		{"moderate", LevelModerate},
		{"extreme", LevelExtreme},
		{"MILD", LevelMild},
		{"Extreme", LevelExtreme},
		{"unknown", LevelModerate},
		{"", LevelModerate},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLevel_FailureRate(t *testing.T) {
	assert.Equal(t, 0.05, LevelMild.FailureRate())
	assert.Equal(t, 0.15, LevelModerate.FailureRate())
	assert.Equal(t, 0.30, LevelExtreme.FailureRate())
}

func TestLevel_MaxDelay(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, LevelMild.MaxDelay())
	assert.Equal(t, 500*time.Millisecond, LevelModerate.MaxDelay())
	assert.Equal(t, 2000*time.Millisecond, LevelExtreme.MaxDelay())
}

func TestLevel_UnknownStringGetsModerateValues(t *testing.T) {
	l := ParseLevel("catastrophic")
	assert.Equal(t, 0.15, l.FailureRate())
	assert.Equal(t, 500*time.Millisecond, l.MaxDelay())
}
