package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/tracksplit/internal/audio"
	"github.com/maauso/tracksplit/internal/boundary"
	"github.com/maauso/tracksplit/internal/media"
	"github.com/maauso/tracksplit/internal/storage"
)

// ErrTracksFailed is returned when at least one track could not be extracted.
// The returned error also wraps one *TrackError per failed track.
var ErrTracksFailed = errors.New("one or more tracks failed")

// TrackError reports the failure of a single track.
type TrackError struct {
	Index    int
	Name     string
	Interval boundary.TrackInterval
	Err      error
}

func (e *TrackError) Error() string {
	end := "end"
	if !e.Interval.ToEnd() {
		end = fmt.Sprintf("%.3f", e.Interval.End)
	}
	return fmt.Sprintf("track %d %q [%.3f, %s): %v", e.Index+1, e.Name, e.Interval.Start, end, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}

// SplitInput contains the input parameters for splitting a recording.
type SplitInput struct {
	// InputPath is the merged source recording.
	InputPath string
	// OutputDir is where extracted tracks are written.
	OutputDir string
	// Artist and Album are optional tags written into every track.
	Artist string
	Album  string
	// TrackNames optionally names tracks by position.
	TrackNames []string
	// MinTrackSec overrides the service minimum track length when positive.
	MinTrackSec float64
	// Detect overrides the service detection options field by field; zero
	// fields keep the service default.
	Detect audio.DetectOpts
	// PushToS3 uploads every extracted track to S3.
	PushToS3 bool
	// RemoveInput deletes InputPath after processing, for uploaded sources.
	RemoveInput bool
}

// SplitOutput contains the result of splitting a recording.
type SplitOutput struct {
	// JobID is the unique identifier for the job.
	JobID string
	// Status is the final job status.
	Status Status
	// Tracks holds every resolved track with its outcome.
	Tracks []Track
	// Error contains the job error message, if any.
	Error string
}

// SplitService orchestrates detection, boundary resolution and extraction.
type SplitService struct {
	repo      Repository
	detector  audio.Detector
	extractor media.Extractor
	storage   storage.Storage
	logger    *slog.Logger

	// maxConcurrentTracks limits parallel extractions.
	maxConcurrentTracks int
	minTrackSec         float64
	detectOpts          audio.DetectOpts
}

// Option configures a SplitService.
type Option func(*SplitService)

// WithMaxConcurrentTracks sets how many tracks are extracted in parallel.
// Values below 1 are ignored.
func WithMaxConcurrentTracks(n int) Option {
	return func(s *SplitService) {
		if n > 0 {
			s.maxConcurrentTracks = n
		}
	}
}

// WithMinTrackSec sets the default minimum track length in seconds.
func WithMinTrackSec(sec float64) Option {
	return func(s *SplitService) {
		if sec >= 0 {
			s.minTrackSec = sec
		}
	}
}

// WithDetectOpts sets the default silence detection options.
func WithDetectOpts(opts audio.DetectOpts) Option {
	return func(s *SplitService) {
		s.detectOpts = opts
	}
}

// NewSplitService creates a new SplitService. store may be nil, in which case
// S3 upload and file cleanup are unavailable.
func NewSplitService(
	repo Repository,
	detector audio.Detector,
	extractor media.Extractor,
	store storage.Storage,
	logger *slog.Logger,
	opts ...Option,
) *SplitService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SplitService{
		repo:                repo,
		detector:            detector,
		extractor:           extractor,
		storage:             store,
		logger:              logger,
		maxConcurrentTracks: 3,
		minTrackSec:         boundary.DefaultMinTrackSec,
		detectOpts:          audio.DefaultDetectOpts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob validates the input and persists a new job in IN_QUEUE status.
// A source without a file extension is rejected before any work starts.
func (s *SplitService) CreateJob(ctx context.Context, input SplitInput) (*Job, error) {
	if _, err := media.SourceExtension(input.InputPath); err != nil {
		return nil, err
	}

	job := New()
	job.InputPath = input.InputPath
	job.OutputDir = input.OutputDir
	job.PushToS3 = input.PushToS3

	s.logger.Info("creating new job",
		slog.String("job_id", job.ID),
		slog.String("input", input.InputPath),
		slog.String("output_dir", input.OutputDir),
		slog.Bool("push_to_s3", input.PushToS3),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job, nil
}

// GetJob retrieves a job by ID.
func (s *SplitService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all jobs, newest first.
func (s *SplitService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// DeleteJob removes a job and the track files it produced.
func (s *SplitService) DeleteJob(ctx context.Context, id string) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !job.IsTerminal() {
		return fmt.Errorf("delete job %s: %w", id, ErrJobActive)
	}

	if s.storage != nil {
		var paths []string
		for _, t := range job.Tracks {
			if t.OutputPath != "" {
				paths = append(paths, t.OutputPath)
			}
		}
		if err := s.storage.CleanupTemp(ctx, paths); err != nil {
			s.logger.Warn("failed to remove track files",
				slog.String("job_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.repo.Delete(ctx, id)
}

// Plan detects silences and resolves track boundaries without extracting
// anything. It returns the tracks and the number of detected silence spans.
func (s *SplitService) Plan(ctx context.Context, input SplitInput) ([]Track, int, error) {
	ext, err := media.SourceExtension(input.InputPath)
	if err != nil {
		return nil, 0, err
	}

	detectOpts := s.detectOpts
	if input.Detect.NoiseDB != 0 {
		detectOpts.NoiseDB = input.Detect.NoiseDB
	}
	if input.Detect.MinSilenceSec > 0 {
		detectOpts.MinSilenceSec = input.Detect.MinSilenceSec
	}
	minTrack := s.minTrackSec
	if input.MinTrackSec > 0 {
		minTrack = input.MinTrackSec
	}

	spans, err := s.detector.Detect(ctx, input.InputPath, detectOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("detect silences: %w", err)
	}

	intervals := boundary.Resolve(spans, minTrack)
	if err := boundary.Validate(intervals); err != nil {
		return nil, len(spans), err
	}

	tracks := make([]Track, len(intervals))
	seen := make(map[string]bool, len(intervals))
	for i, iv := range intervals {
		name := boundary.TrackName(i, input.TrackNames)
		out := media.OutputPath(input.OutputDir, name, ext)
		// Repeated names must not write the same file concurrently.
		if seen[out] {
			out = media.OutputPath(input.OutputDir, fmt.Sprintf("%s (%d)", name, i+1), ext)
		}
		seen[out] = true
		tracks[i] = Track{
			Index:      i,
			Name:       name,
			Interval:   iv,
			Status:     TrackStatusPending,
			OutputPath: out,
		}
	}

	attrs := []any{
		slog.String("input", input.InputPath),
		slog.Int("silences", len(spans)),
		slog.Int("tracks", len(tracks)),
		slog.Float64("min_track_sec", minTrack),
	}
	if p, ok := s.detector.(durationProber); ok {
		if d, err := p.Duration(ctx, input.InputPath); err == nil {
			attrs = append(attrs, slog.String("source_length", boundary.FormatClock(d)))
			if last := intervals[len(intervals)-1]; last.Start >= d {
				s.logger.Warn("final track starts at or after the end of the source",
					slog.String("input", input.InputPath),
					slog.Float64("start", last.Start),
					slog.Float64("source_sec", d),
				)
			}
		}
	}
	s.logger.Info("resolved track boundaries", attrs...)
	return tracks, len(spans), nil
}

// durationProber is implemented by detectors that can report the source length.
type durationProber interface {
	Duration(ctx context.Context, inputPath string) (float64, error)
}

// Split creates a job and processes it synchronously.
func (s *SplitService) Split(ctx context.Context, input SplitInput) (*SplitOutput, error) {
	job, err := s.CreateJob(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.ProcessExistingJob(ctx, job.ID, input)
}

// ProcessExistingJob runs detection, resolution and extraction for a job
// created with CreateJob.
//
// Tracks are extracted concurrently and independently: a failed track does
// not stop its siblings. When any track fails the job ends FAILED and the
// returned error wraps ErrTracksFailed plus one *TrackError per failure; the
// output still reports every track.
func (s *SplitService) ProcessExistingJob(ctx context.Context, jobID string, input SplitInput) (*SplitOutput, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if input.RemoveInput {
		defer s.removeInput(ctx, input.InputPath)
	}

	if err := job.Start(); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobID, err)
	}
	s.save(ctx, job)

	tracks, silences, err := s.Plan(ctx, input)
	if err != nil {
		return s.finish(ctx, job, err)
	}
	job.SetTracks(tracks, silences)
	s.save(ctx, job)

	var g errgroup.Group
	g.SetLimit(s.maxConcurrentTracks)

	trackErrs := make([]error, len(tracks))
	for i := range tracks {
		g.Go(func() error {
			trackErrs[i] = s.processTrack(ctx, job, input, tracks[i])
			return nil
		})
	}
	_ = g.Wait()

	if joined := errors.Join(trackErrs...); joined != nil {
		return s.finish(ctx, job, fmt.Errorf("%w: %w", ErrTracksFailed, joined))
	}
	return s.finish(ctx, job, nil)
}

// processTrack extracts one track and optionally pushes it to S3. The track's
// outcome is recorded on the job.
func (s *SplitService) processTrack(ctx context.Context, job *Job, input SplitInput, track Track) error {
	track.Status = TrackStatusExtracting
	job.UpdateTrack(track.Index, track)

	req := media.ExtractRequest{
		InputPath:  input.InputPath,
		OutputPath: track.OutputPath,
		Start:      track.Interval.Start,
		Metadata: media.Metadata{
			Title:  track.Name,
			Artist: input.Artist,
			Album:  input.Album,
			Track:  track.Index + 1,
		},
	}
	if d, ok := track.Interval.Duration(); ok {
		req.Duration = d
	} else {
		req.ToEnd = true
	}

	s.logger.Info("extracting track",
		slog.String("job_id", job.ID),
		slog.Int("track", track.Index+1),
		slog.String("name", track.Name),
		slog.String("start", boundary.FormatClock(track.Interval.Start)),
		slog.Bool("to_end", req.ToEnd),
		slog.Float64("duration", req.Duration),
	)

	err := s.extractor.Extract(ctx, req)
	if err == nil && input.PushToS3 {
		track.URL, err = s.upload(ctx, job.ID, track.OutputPath)
	}

	if err != nil {
		trackErr := &TrackError{Index: track.Index, Name: track.Name, Interval: track.Interval, Err: err}
		s.logger.Error("track failed",
			slog.String("job_id", job.ID),
			slog.Int("track", track.Index+1),
			slog.String("error", err.Error()),
		)
		track.Status = TrackStatusFailed
		track.Error = err.Error()
		job.UpdateTrack(track.Index, track)
		s.save(ctx, job)
		return trackErr
	}

	track.Status = TrackStatusCompleted
	job.UpdateTrack(track.Index, track)
	s.save(ctx, job)
	return nil
}

// upload pushes an extracted track to S3 under <jobID>/<file name>.
func (s *SplitService) upload(ctx context.Context, jobID, trackPath string) (string, error) {
	if s.storage == nil {
		return "", storage.ErrS3NotConfigured
	}

	f, err := s.storage.LoadTemp(ctx, trackPath)
	if err != nil {
		return "", fmt.Errorf("open track for upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := s.storage.UploadToS3(ctx, path.Join(jobID, filepath.Base(trackPath)), f)
	if err != nil {
		return "", err
	}
	return url, nil
}

// finish moves the job to its terminal state and builds the output.
func (s *SplitService) finish(ctx context.Context, job *Job, procErr error) (*SplitOutput, error) {
	switch {
	case procErr == nil:
		_ = job.Complete()
		s.logger.Info("job completed",
			slog.String("job_id", job.ID),
			slog.Int("tracks", len(job.Tracks)),
		)
	case ctx.Err() != nil:
		_ = job.Cancel()
		s.logger.Warn("job cancelled",
			slog.String("job_id", job.ID),
			slog.String("error", procErr.Error()),
		)
	default:
		_ = job.Fail(procErr.Error())
		s.logger.Error("job failed",
			slog.String("job_id", job.ID),
			slog.Int("failed_tracks", len(job.FailedTracks())),
			slog.String("error", procErr.Error()),
		)
	}
	s.save(context.WithoutCancel(ctx), job)

	snapshot := job.Clone()
	return &SplitOutput{
		JobID:  snapshot.ID,
		Status: snapshot.Status,
		Tracks: snapshot.Tracks,
		Error:  snapshot.Error,
	}, procErr
}

func (s *SplitService) save(ctx context.Context, job *Job) {
	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *SplitService) removeInput(ctx context.Context, inputPath string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.CleanupTemp(context.WithoutCancel(ctx), []string{inputPath}); err != nil {
		s.logger.Warn("failed to remove input",
			slog.String("input", inputPath),
			slog.String("error", err.Error()),
		)
	}
}
