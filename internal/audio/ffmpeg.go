package audio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/maauso/tracksplit/internal/boundary"
)

// Static errors for silence detection.
var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file does not exist")
	// ErrNoDuration is returned when ffmpeg output carries no duration line.
	ErrNoDuration = errors.New("could not parse duration from ffmpeg output")
)

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(\S+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([^\s|]+)`)
	durationRe     = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
)

// FFmpegDetector implements Detector using the ffmpeg silencedetect filter.
type FFmpegDetector struct {
	ffmpegPath string
	logger     *slog.Logger
}

// NewFFmpegDetector creates a new FFmpegDetector.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found in PATH).
func NewFFmpegDetector(ffmpegPath string, logger *slog.Logger) *FFmpegDetector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegDetector{ffmpegPath: ffmpegPath, logger: logger}
}

// Detect implements Detector.Detect.
func (d *FFmpegDetector) Detect(ctx context.Context, inputPath string, opts DetectOpts) ([]boundary.SilenceSpan, error) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}

	filter := fmt.Sprintf("silencedetect=noise=%sdB:d=%s",
		strconv.FormatFloat(opts.NoiseDB, 'f', -1, 64),
		strconv.FormatFloat(opts.MinSilenceSec, 'f', -1, 64),
	)

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-nostats",
		"-i", inputPath,
		"-af", filter,
		"-f", "null",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// silencedetect reports on stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("detect silences: %w", ctxErr)
		}
		return nil, fmt.Errorf("ffmpeg error: %w, stderr: %s", err, tail(stderr.String(), 2048))
	}

	spans, skipped, err := ParseSilenceOutput(&stderr)
	if err != nil {
		return nil, fmt.Errorf("parse silencedetect output: %w", err)
	}
	if skipped > 0 {
		d.logger.Warn("skipped malformed silencedetect lines",
			slog.String("input", inputPath),
			slog.Int("skipped", skipped),
		)
	}

	d.logger.Debug("silence detection finished",
		slog.String("input", inputPath),
		slog.Int("spans", len(spans)),
	)
	return spans, nil
}

// Duration returns the duration of an audio file in seconds as reported by
// ffmpeg.
func (d *FFmpegDetector) Duration(ctx context.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-i", inputPath,
		"-f", "null", "-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// ffmpeg writes duration info to stderr
	_ = cmd.Run()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return parseDuration(stderr.String())
}

// ParseSilenceOutput pairs silence_start and silence_end lines from ffmpeg
// silencedetect output. Lines whose values do not parse are skipped and
// counted; a trailing start without an end is dropped.
func ParseSilenceOutput(r io.Reader) (spans []boundary.SilenceSpan, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentStart float64
	hasStart := false

	for scanner.Scan() {
		line := scanner.Text()

		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			val, perr := strconv.ParseFloat(m[1], 64)
			if perr != nil {
				skipped++
				hasStart = false
				continue
			}
			currentStart = val
			hasStart = true
			continue
		}

		m := silenceEndRe.FindStringSubmatch(line)
		if m == nil || !hasStart {
			continue
		}
		val, perr := strconv.ParseFloat(m[1], 64)
		hasStart = false
		if perr != nil {
			skipped++
			continue
		}
		spans = append(spans, boundary.SilenceSpan{Start: currentStart, End: val})
	}

	return spans, skipped, scanner.Err()
}

// parseDuration extracts "Duration: HH:MM:SS.frac" from ffmpeg output.
func parseDuration(output string) (float64, error) {
	matches := durationRe.FindStringSubmatch(output)
	if len(matches) < 5 {
		return 0, ErrNoDuration
	}

	hours, _ := strconv.ParseFloat(matches[1], 64)
	minutes, _ := strconv.ParseFloat(matches[2], 64)
	seconds, _ := strconv.ParseFloat(matches[3], 64)
	frac, _ := strconv.ParseFloat("0."+matches[4], 64)

	return hours*3600 + minutes*60 + seconds + frac, nil
}

// tail keeps the last n bytes of s.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Verify interface implementation at compile time.
var _ Detector = (*FFmpegDetector)(nil)
