package boundary

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		spans []SilenceSpan
		want  []TrackInterval
	}{
		{
			name:  "empty input yields one track",
			spans: nil,
			want:  []TrackInterval{{0, EndOfSource}},
		},
		{
			name:  "short first segment is kept",
			spans: []SilenceSpan{{10, 12}},
			want:  []TrackInterval{{0, 11}, {11, EndOfSource}},
		},
		{
			name:  "two long segments",
			spans: []SilenceSpan{{30, 32}, {70, 72}},
			want:  []TrackInterval{{0, 31}, {31, 71}, {71, EndOfSource}},
		},
		{
			name:  "short second segment merges backward",
			spans: []SilenceSpan{{10, 12}, {15, 17}},
			want:  []TrackInterval{{0, 16}, {16, EndOfSource}},
		},
		{
			name:  "segment equal to minimum is accepted",
			spans: []SilenceSpan{{29, 31}, {49, 51}},
			want:  []TrackInterval{{0, 30}, {30, 50}, {50, EndOfSource}},
		},
		{
			name:  "several short segments accumulate into one track",
			spans: []SilenceSpan{{30, 32}, {35, 37}, {40, 42}, {45, 47}, {80, 82}},
			want:  []TrackInterval{{0, 46}, {46, 81}, {81, EndOfSource}},
		},
		{
			name:  "short final segment is not enforced",
			spans: []SilenceSpan{{100, 102}},
			want:  []TrackInterval{{0, 101}, {101, EndOfSource}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.spans, 20)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, Validate(got))
		})
	}
}

func TestResolve_MalformedInput(t *testing.T) {
	t.Run("non-finite spans are skipped", func(t *testing.T) {
		spans := []SilenceSpan{
			{math.NaN(), 12},
			{30, 32},
			{math.Inf(1), math.Inf(1)},
			{70, math.NaN()},
			{90, 92},
		}
		got := Resolve(spans, 20)
		assert.Equal(t, []TrackInterval{{0, 31}, {31, 91}, {91, EndOfSource}}, got)
	})

	t.Run("reversed span uses midpoint at face value", func(t *testing.T) {
		got := Resolve([]SilenceSpan{{32, 30}}, 20)
		assert.Equal(t, []TrackInterval{{0, 31}, {31, EndOfSource}}, got)
	})

	t.Run("decreasing split point never shrinks previous interval", func(t *testing.T) {
		got := Resolve([]SilenceSpan{{50, 52}, {10, 12}, {90, 92}}, 20)
		assert.Equal(t, []TrackInterval{{0, 51}, {51, 91}, {91, EndOfSource}}, got)
	})

	t.Run("negative first split point is clamped away", func(t *testing.T) {
		got := Resolve([]SilenceSpan{{-4, -2}, {0, 0}, {30, 32}}, 20)
		assert.Equal(t, []TrackInterval{{0, 31}, {31, EndOfSource}}, got)
	})

	t.Run("coincident spans do not create empty tracks", func(t *testing.T) {
		got := Resolve([]SilenceSpan{{30, 32}, {30, 32}, {30, 32}}, 0)
		assert.Equal(t, []TrackInterval{{0, 31}, {31, EndOfSource}}, got)
	})
}

func TestResolve_MergeKeepsPreviousStart(t *testing.T) {
	spans := []SilenceSpan{{30, 32}, {70, 72}, {75, 77}}
	got := Resolve(spans, 20)

	require.Len(t, got, 3)
	assert.Equal(t, 31.0, got[1].Start)
	assert.Equal(t, 76.0, got[1].End)
	assert.Equal(t, 76.0, got[2].Start)
}

func TestResolve_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const minTrack = 20.0

	for run := 0; run < 200; run++ {
		spans := randomSpans(rng, rng.IntN(40))
		got := Resolve(spans, minTrack)

		require.NoError(t, Validate(got), "run %d spans %v", run, spans)

		for i := 1; i < len(got)-1; i++ {
			d, ok := got[i].Duration()
			require.True(t, ok)
			assert.GreaterOrEqual(t, d, minTrack, "run %d interval %d", run, i)
		}
		for i := 1; i < len(got); i++ {
			assert.Greater(t, got[i].Start, got[i-1].Start)
		}

		again := Resolve(asSpans(got), minTrack)
		assert.Equal(t, got, again, "run %d: resolving a compliant partition must be a no-op", run)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		intervals []TrackInterval
		wantErr   bool
	}{
		{"valid", []TrackInterval{{0, 10}, {10, EndOfSource}}, false},
		{"single sentinel", []TrackInterval{{0, EndOfSource}}, false},
		{"empty", nil, true},
		{"nonzero start", []TrackInterval{{1, EndOfSource}}, true},
		{"gap", []TrackInterval{{0, 10}, {11, EndOfSource}}, true},
		{"no sentinel", []TrackInterval{{0, 10}, {10, 20}}, true},
		{"empty interval", []TrackInterval{{0, 0}, {0, EndOfSource}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.intervals)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPartition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrackInterval_Duration(t *testing.T) {
	d, ok := TrackInterval{Start: 5, End: 12.5}.Duration()
	assert.True(t, ok)
	assert.Equal(t, 7.5, d)

	_, ok = TrackInterval{Start: 5, End: EndOfSource}.Duration()
	assert.False(t, ok)
}

// randomSpans produces ordered spans with occasional detector noise: overlaps,
// reversed boundaries and duplicates.
func randomSpans(rng *rand.Rand, n int) []SilenceSpan {
	spans := make([]SilenceSpan, 0, n)
	cursor := 0.0
	for i := 0; i < n; i++ {
		cursor += rng.Float64() * 60
		length := rng.Float64() * 4
		span := SilenceSpan{Start: cursor, End: cursor + length}
		switch rng.IntN(10) {
		case 0:
			span.Start, span.End = span.End, span.Start
		case 1:
			span.Start -= 30
		case 2:
			if len(spans) > 0 {
				span = spans[len(spans)-1]
			}
		}
		spans = append(spans, span)
	}
	return spans
}

// asSpans turns every interior boundary into a zero-width span.
func asSpans(intervals []TrackInterval) []SilenceSpan {
	spans := make([]SilenceSpan, 0, len(intervals))
	for _, iv := range intervals[:len(intervals)-1] {
		spans = append(spans, SilenceSpan{Start: iv.End, End: iv.End})
	}
	return spans
}
