package boundary

import (
	"fmt"
	"math"
	"strings"
)

// TrackName returns names[i] when present and non-blank, otherwise a default
// of the form "Track 01".
func TrackName(i int, names []string) string {
	if i >= 0 && i < len(names) {
		if name := strings.TrimSpace(names[i]); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Track %02d", i+1)
}

// FormatClock renders seconds as HH:MM:SS, truncating fractions.
// Negative and non-finite inputs render as 00:00:00.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
