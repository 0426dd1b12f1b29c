package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// FFmpegExtractor implements Extractor using the ffmpeg CLI.
// Streams are copied, never re-encoded.
type FFmpegExtractor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegExtractor creates a new FFmpegExtractor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegExtractor(ffmpegPath string) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegExtractor{ffmpegPath: ffmpegPath}
}

// Extract implements Extractor.Extract.
func (p *FFmpegExtractor) Extract(ctx context.Context, req ExtractRequest) error {
	if !req.ToEnd && req.Duration <= 0 {
		return fmt.Errorf("%w: got %.3f", ErrInvalidDuration, req.Duration)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	return p.runFFmpeg(ctx, extractArgs(req))
}

// extractArgs builds the ffmpeg command line for a request.
func extractArgs(req ExtractRequest) []string {
	args := []string{
		"-y", // Overwrite output file
		"-hide_banner",
		"-ss", strconv.FormatFloat(req.Start, 'f', 3, 64),
	}
	if !req.ToEnd {
		args = append(args, "-t", strconv.FormatFloat(req.Duration, 'f', 3, 64))
	}
	args = append(args,
		"-i", req.InputPath,
		"-map_metadata", "0",
		"-metadata", "title="+req.Metadata.Title,
	)
	if req.Metadata.Artist != "" {
		args = append(args, "-metadata", "artist="+req.Metadata.Artist)
	}
	if req.Metadata.Album != "" {
		args = append(args, "-metadata", "album="+req.Metadata.Album)
	}
	if req.Metadata.Track > 0 {
		args = append(args, "-metadata", "track="+strconv.Itoa(req.Metadata.Track))
	}
	return append(args,
		"-c:a", "copy", // No re-encoding
		req.OutputPath,
	)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegExtractor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
// It matches ErrExtractionFailed with errors.Is.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() []error {
	return []error{ErrExtractionFailed, e.Err}
}

// Verify interface implementation at compile time.
var _ Extractor = (*FFmpegExtractor)(nil)
