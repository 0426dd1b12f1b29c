// Package audio detects silence in audio files.
package audio

import (
	"context"

	"github.com/maauso/tracksplit/internal/boundary"
)

// DetectOpts configures silence detection. Both values are passed straight to
// the detector; they are not tuned here.
type DetectOpts struct {
	// NoiseDB is the volume threshold in dB below which audio is silence.
	// Default: -40 dB.
	NoiseDB float64

	// MinSilenceSec is the minimum duration of a silence to be reported.
	// Default: 1.4 seconds.
	MinSilenceSec float64
}

// DefaultDetectOpts returns the default options for silence detection.
func DefaultDetectOpts() DetectOpts {
	return DetectOpts{
		NoiseDB:       -40,
		MinSilenceSec: 1.4,
	}
}

// Detector finds silence spans in an audio file.
type Detector interface {
	// Detect runs a silence detection pass over inputPath and returns the
	// detected spans ordered by start time. An empty result is not an error.
	Detect(ctx context.Context, inputPath string, opts DetectOpts) ([]boundary.SilenceSpan, error)
}
