// Package boundary turns detected silence spans into a contiguous partition
// of the source timeline into tracks.
package boundary

import (
	"errors"
	"fmt"
	"math"
)

// EndOfSource is the End of the final interval. It means "extract to the end
// of the source file".
var EndOfSource = math.Inf(1)

// DefaultMinTrackSec is the minimum track length used when the caller does not
// provide one.
const DefaultMinTrackSec = 20.0

// SilenceSpan is a detector-reported region of near-silence, in seconds.
type SilenceSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Midpoint returns the split point of the span.
func (s SilenceSpan) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// valid reports whether both boundaries are finite numbers.
func (s SilenceSpan) valid() bool {
	return !math.IsNaN(s.Start) && !math.IsNaN(s.End) &&
		!math.IsInf(s.Start, 0) && !math.IsInf(s.End, 0)
}

// TrackInterval is a resolved time range assigned to one output track.
type TrackInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ToEnd reports whether the interval runs to the end of the source.
func (t TrackInterval) ToEnd() bool {
	return math.IsInf(t.End, 1)
}

// Duration returns the interval length. The second value is false for the
// final interval, whose length is unknown.
func (t TrackInterval) Duration() (float64, bool) {
	if t.ToEnd() {
		return 0, false
	}
	return t.End - t.Start, true
}

// Resolve derives track intervals from silence spans in a single forward pass.
//
// Each span is split at its midpoint. A segment shorter than minTrackLength is
// merged into the previous interval; the first segment is always kept because
// there is nothing to merge it into. The last interval always ends at
// EndOfSource and is not subject to the minimum length.
//
// Resolve never fails. Spans with non-finite boundaries are skipped, split
// points that move backwards are absorbed into the previous interval without
// shrinking it, and a first split point at or before zero produces no interval.
func Resolve(spans []SilenceSpan, minTrackLength float64) []TrackInterval {
	intervals := make([]TrackInterval, 0, len(spans)+1)

	for _, span := range spans {
		if !span.valid() {
			continue
		}
		split := span.Midpoint()

		if len(intervals) == 0 {
			if split <= 0 {
				continue
			}
			intervals = append(intervals, TrackInterval{Start: 0, End: split})
			continue
		}

		last := &intervals[len(intervals)-1]
		if split-last.End >= minTrackLength && split > last.End {
			intervals = append(intervals, TrackInterval{Start: last.End, End: split})
			continue
		}
		if split > last.End {
			last.End = split
		}
	}

	start := 0.0
	if n := len(intervals); n > 0 {
		start = intervals[n-1].End
	}
	return append(intervals, TrackInterval{Start: start, End: EndOfSource})
}

// ErrInvalidPartition is returned by Validate when intervals do not form a
// contiguous partition of the timeline.
var ErrInvalidPartition = errors.New("invalid track partition")

// Validate checks that intervals start at zero, are contiguous with strictly
// increasing starts, and end with the EndOfSource sentinel.
func Validate(intervals []TrackInterval) error {
	if len(intervals) == 0 {
		return fmt.Errorf("%w: no intervals", ErrInvalidPartition)
	}
	if intervals[0].Start != 0 {
		return fmt.Errorf("%w: first interval starts at %.3f", ErrInvalidPartition, intervals[0].Start)
	}
	for i, iv := range intervals {
		if iv.End <= iv.Start {
			return fmt.Errorf("%w: interval %d is empty [%.3f, %.3f)", ErrInvalidPartition, i, iv.Start, iv.End)
		}
		if i > 0 && intervals[i-1].End != iv.Start {
			return fmt.Errorf("%w: gap between interval %d and %d", ErrInvalidPartition, i-1, i)
		}
		if iv.ToEnd() != (i == len(intervals)-1) {
			return fmt.Errorf("%w: interval %d misplaces the end-of-source sentinel", ErrInvalidPartition, i)
		}
	}
	return nil
}
