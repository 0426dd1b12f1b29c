package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available.
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
}

// createTestAudio creates a sine tone of the given duration.
func createTestAudio(t *testing.T, path string, duration float64) {
	t.Helper()

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:sample_rate=44100:duration=%.1f", duration),
		"-ac", "1",
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test audio: %v\noutput: %s", err, output)
	}
}

// probeDuration returns the duration reported by ffprobe.
func probeDuration(t *testing.T, path string) float64 {
	t.Helper()

	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	require.NoError(t, err)

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	require.NoError(t, err)
	return d
}

// probeTag returns a format tag reported by ffprobe.
func probeTag(t *testing.T, path, tag string) string {
	t.Helper()

	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format_tags="+tag,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func TestFFmpegExtractor_Extract(t *testing.T) {
	skipIfNoFFmpeg(t)
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH, skipping test")
	}

	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "merged.wav")
	createTestAudio(t, input, 10)

	extractor := NewFFmpegExtractor("")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("bounded slice", func(t *testing.T) {
		out := filepath.Join(tmpDir, "out", "Track 01.wav")
		err := extractor.Extract(ctx, ExtractRequest{
			InputPath:  input,
			OutputPath: out,
			Start:      2,
			Duration:   3,
			Metadata:   Metadata{Title: "Track 01", Artist: "Artist", Album: "Album", Track: 1},
		})
		require.NoError(t, err)
		assert.InDelta(t, 3.0, probeDuration(t, out), 0.1)
		assert.Equal(t, "Track 01", probeTag(t, out, "title"))
		assert.Equal(t, "Artist", probeTag(t, out, "artist"))
	})

	t.Run("to end of source", func(t *testing.T) {
		out := filepath.Join(tmpDir, "out", "Track 02.wav")
		err := extractor.Extract(ctx, ExtractRequest{
			InputPath:  input,
			OutputPath: out,
			Start:      6,
			ToEnd:      true,
			Metadata:   Metadata{Title: "Track 02"},
		})
		require.NoError(t, err)
		assert.InDelta(t, 4.0, probeDuration(t, out), 0.1)
	})
}

func TestFFmpegExtractor_MissingInput(t *testing.T) {
	skipIfNoFFmpeg(t)

	err := NewFFmpegExtractor("").Extract(context.Background(), ExtractRequest{
		InputPath:  "/nonexistent/merged.mp3",
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
		ToEnd:      true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)

	var ffErr *FFmpegError
	assert.ErrorAs(t, err, &ffErr)
}

func TestFFmpegExtractor_InvalidDuration(t *testing.T) {
	err := NewFFmpegExtractor("").Extract(context.Background(), ExtractRequest{
		InputPath:  "in.mp3",
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
		Duration:   0,
	})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestFFmpegExtractor_BinaryNotFound(t *testing.T) {
	err := NewFFmpegExtractor("/nonexistent/ffmpeg").Extract(context.Background(), ExtractRequest{
		InputPath:  "in.mp3",
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
		ToEnd:      true,
	})
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractArgs(t *testing.T) {
	t.Run("bounded with tags", func(t *testing.T) {
		args := extractArgs(ExtractRequest{
			InputPath:  "songs.mp3",
			OutputPath: "out/Intro.mp3",
			Start:      31.5,
			Duration:   39.25,
			Metadata:   Metadata{Title: "Intro", Artist: "A", Album: "B", Track: 2},
		})
		assert.Equal(t, []string{
			"-y", "-hide_banner",
			"-ss", "31.500",
			"-t", "39.250",
			"-i", "songs.mp3",
			"-map_metadata", "0",
			"-metadata", "title=Intro",
			"-metadata", "artist=A",
			"-metadata", "album=B",
			"-metadata", "track=2",
			"-c:a", "copy",
			"out/Intro.mp3",
		}, args)
	})

	t.Run("to end omits duration and empty tags", func(t *testing.T) {
		args := extractArgs(ExtractRequest{
			InputPath:  "songs.mp3",
			OutputPath: "out/Track 03.mp3",
			Start:      71,
			Duration:   999,
			ToEnd:      true,
			Metadata:   Metadata{Title: "Track 03"},
		})
		assert.NotContains(t, args, "-t")
		for _, a := range args {
			assert.False(t, strings.HasPrefix(a, "artist="), "unexpected tag %q", a)
		}
		assert.Equal(t, "71.000", args[3])
	})
}

func TestSourceExtension(t *testing.T) {
	ext, err := SourceExtension("/music/songs.mp3")
	require.NoError(t, err)
	assert.Equal(t, "mp3", ext)

	ext, err = SourceExtension("live.set.flac")
	require.NoError(t, err)
	assert.Equal(t, "flac", ext)

	for _, bad := range []string{"", "songs", "dir.d/", "trailing."} {
		_, err := SourceExtension(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, "path %q", bad)
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "Track 01.mp3"), OutputPath("out", "Track 01", "mp3"))
	assert.Equal(t, filepath.Join("out", "AC_DC - Back.mp3"), OutputPath("out", "AC/DC - Back", "mp3"))
	assert.Equal(t, filepath.Join("out", "track.ogg"), OutputPath("out", " .. ", "ogg"))
}

func TestNewFFmpegExtractor_Path(t *testing.T) {
	assert.Equal(t, "ffmpeg", NewFFmpegExtractor("").ffmpegPath)
	assert.Equal(t, "/opt/ffmpeg", NewFFmpegExtractor("/opt/ffmpeg").ffmpegPath)
}
