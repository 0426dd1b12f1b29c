package boundary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackName(t *testing.T) {
	names := []string{"Intro", "  ", "Outro"}

	assert.Equal(t, "Intro", TrackName(0, names))
	assert.Equal(t, "Track 02", TrackName(1, names))
	assert.Equal(t, "Outro", TrackName(2, names))
	assert.Equal(t, "Track 04", TrackName(3, names))
	assert.Equal(t, "Track 01", TrackName(0, nil))
	assert.Equal(t, "Track 100", TrackName(99, nil))
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{59.999, "00:00:59"},
		{61, "00:01:01"},
		{3725.4, "01:02:05"},
		{-3, "00:00:00"},
		{math.NaN(), "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.in))
	}
}
