// Package job provides the Job aggregate for track splitting jobs.
// It includes the Job entity with its state machine, per-track results,
// and the repository interface for persistence.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/tracksplit/internal/boundary"
	"github.com/maauso/tracksplit/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is waiting to be processed.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates detection or extraction is in progress.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates every track was extracted successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job or at least one of its tracks failed.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the job was manually cancelled.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TrackStatus represents the extraction status of a single track.
type TrackStatus string

const (
	// TrackStatusPending indicates the track is waiting to be extracted.
	TrackStatusPending TrackStatus = "PENDING"
	// TrackStatusExtracting indicates extraction is running.
	TrackStatusExtracting TrackStatus = "EXTRACTING"
	// TrackStatusCompleted indicates the track file was written.
	TrackStatusCompleted TrackStatus = "COMPLETED"
	// TrackStatusFailed indicates extraction or upload failed.
	TrackStatusFailed TrackStatus = "FAILED"
)

// Track is one resolved output track of a job.
type Track struct {
	// Index is the 0-based position of the track.
	Index int
	// Name is the track title, also used for the file name.
	Name string
	// Interval is the resolved [Start, End) range in the source.
	Interval boundary.TrackInterval
	// Status is the current extraction status.
	Status TrackStatus
	// OutputPath is the path of the extracted file.
	OutputPath string
	// URL is the S3 URL when the track was pushed to S3.
	URL string
	// Error contains the failure message if extraction failed.
	Error string
}

// Job represents a track splitting job aggregate.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Tracks contains the resolved output tracks.
	Tracks []Track
	// Silences is the number of silence spans the detector reported.
	Silences int
	// Progress is the percentage of completion (0-100).
	Progress int
	// Error contains any error message if the job failed.
	Error string
	// InputPath is the path to the merged source recording.
	InputPath string
	// OutputDir is the directory extracted tracks are written to.
	OutputDir string
	// PushToS3 indicates whether to upload tracks to S3.
	PushToS3 bool
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New() *Job {
	return NewWithID(id.Generate())
}

// NewWithID creates a new Job with the specified ID and initial IN_QUEUE status.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusInQueue,
		Tracks:    make([]Track, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	if err := j.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	j.UpdateProgress(100)
	return nil
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status.
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetTracks sets the resolved tracks for this job.
func (j *Job) SetTracks(tracks []Track, silences int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Tracks = tracks
	j.Silences = silences
	j.UpdatedAt = time.Now()
}

// UpdateTrack replaces the track at index and recomputes progress from the
// number of finished tracks.
func (j *Job) UpdateTrack(index int, track Track) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if index < 0 || index >= len(j.Tracks) {
		return
	}
	j.Tracks[index] = track
	j.UpdatedAt = time.Now()

	done := 0
	for _, t := range j.Tracks {
		if t.Status == TrackStatusCompleted || t.Status == TrackStatusFailed {
			done++
		}
	}
	j.Progress = done * 100 / len(j.Tracks)
}

// UpdateProgress sets the progress percentage (0-100).
func (j *Job) UpdateProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress = min(max(progress, 0), 100)
	j.UpdatedAt = time.Now()
}

// FailedTracks returns the tracks whose extraction failed.
func (j *Job) FailedTracks() []Track {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var failed []Track
	for _, t := range j.Tracks {
		if t.Status == TrackStatusFailed {
			failed = append(failed, t)
		}
	}
	return failed
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	tracks := make([]Track, len(j.Tracks))
	copy(tracks, j.Tracks)

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Tracks:      tracks,
		Silences:    j.Silences,
		Progress:    j.Progress,
		Error:       j.Error,
		InputPath:   j.InputPath,
		OutputDir:   j.OutputDir,
		PushToS3:    j.PushToS3,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
