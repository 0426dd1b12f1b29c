// Package media cuts tracks out of a source recording and tags them.
package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Static errors for media operations.
var (
	// ErrInvalidInput is returned when the source file has no usable extension.
	ErrInvalidInput = errors.New("invalid input: source file has no extension")
	// ErrInvalidDuration is returned when a bounded extraction has no positive duration.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrExtractionFailed is returned when the extraction tool reports a failure.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Metadata holds the tags written into an extracted track.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	// Track is the 1-based track number. Zero omits the tag.
	Track int
}

// ExtractRequest describes one [Start, Start+Duration) slice of a source file.
type ExtractRequest struct {
	InputPath  string
	OutputPath string
	// Start is the offset into the source in seconds.
	Start float64
	// Duration is the slice length in seconds. Ignored when ToEnd is set.
	Duration float64
	// ToEnd extracts from Start to the end of the source.
	ToEnd    bool
	Metadata Metadata
}

// Extractor cuts and tags one output file per request.
// Calls are independent and may run concurrently.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) error
}

// SourceExtension returns the extension of path without the leading dot.
func SourceExtension(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidInput, path)
	}
	return ext, nil
}

// OutputPath builds the destination path for a track inside dir.
// Path separators and other characters unsafe in file names are replaced.
func OutputPath(dir, trackName, ext string) string {
	return filepath.Join(dir, sanitizeFileName(trackName)+"."+ext)
}

var fileNameReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", "\x00", "",
)

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	name = strings.Trim(name, ".")
	if name == "" {
		return "track"
	}
	return name
}
