package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/tracksplit/internal/audio"
	"github.com/maauso/tracksplit/internal/boundary"
	"github.com/maauso/tracksplit/internal/job"
	"github.com/maauso/tracksplit/internal/media"
	"github.com/maauso/tracksplit/internal/storage"
)

// defaultMaxBodyBytes bounds the size of a create request, base64 included.
const defaultMaxBodyBytes = 1 << 30

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.SplitService
	store              storage.Storage
	validator          *validator.Validate
	logger             *slog.Logger
	outputDir          string
	maxBodyBytes       int64
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateSplit only creates the job and returns immediately
// without starting background processing.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// WithOutputDir sets the directory under which each job writes its tracks.
func WithOutputDir(dir string) HandlerOption {
	return func(h *Handlers) {
		if dir != "" {
			h.outputDir = dir
		}
	}
}

// WithMaxBodyBytes limits the size of create requests.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance. store receives uploaded
// recordings before they are split.
func NewHandlers(service *job.SplitService, store storage.Storage, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		store:              store,
		validator:          validator.New(),
		logger:             logger,
		outputDir:          filepath.Join(os.TempDir(), "tracksplit", "tracks"),
		maxBodyBytes:       defaultMaxBodyBytes,
		enableAsyncProcess: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateSplit handles POST /splits requests.
func (h *Handlers) CreateSplit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req CreateSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "BODY_TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	if _, err := media.SourceExtension(req.FileName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}

	audioData, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio_base64 is not valid base64", "VALIDATION_ERROR")
		return
	}

	inputPath, err := h.store.SaveTemp(r.Context(), req.FileName, bytes.NewReader(audioData))
	if err != nil {
		h.logger.Error("failed to store upload",
			slog.String("file_name", req.FileName),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to store audio", "STORAGE_FAILED")
		return
	}

	// The temp name is unique, so it doubles as the job's output folder.
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	input := job.SplitInput{
		InputPath:   inputPath,
		OutputDir:   filepath.Join(h.outputDir, stem),
		Artist:      req.Artist,
		Album:       req.Album,
		TrackNames:  req.TrackNames,
		MinTrackSec: req.MinTrackSec,
		Detect: audio.DetectOpts{
			NoiseDB:       req.NoiseDB,
			MinSilenceSec: req.MinSilenceSec,
		},
		PushToS3:    req.PushToS3,
		RemoveInput: true,
	}

	createdJob, err := h.service.CreateJob(r.Context(), input)
	if err != nil {
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		_ = h.store.CleanupTemp(context.WithoutCancel(r.Context()), []string{inputPath})
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// Start processing in background with a detached context
	// Use context.WithoutCancel to prevent cancellation when the request ends
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string, inp job.SplitInput) {
			_, processErr := h.service.ProcessExistingJob(ctx, jobID, inp)
			if processErr != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID, input)
	}

	h.logger.Info("split job created",
		slog.String("job_id", createdJob.ID),
		slog.String("file_name", req.FileName),
		slog.Int("bytes", len(audioData)),
		slog.Int("track_names", len(req.TrackNames)),
	)

	writeJSON(w, http.StatusAccepted, CreateSplitResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.GetStatus()),
	})
}

// ListSplits handles GET /splits requests.
func (h *Handlers) ListSplits(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListSplitsResponse{Splits: make([]SplitResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Splits = append(resp.Splits, toSplitResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSplit handles GET /splits/{id} requests.
func (h *Handlers) GetSplit(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toSplitResponse(foundJob))
}

// DeleteSplit handles DELETE /splits/{id} requests. It removes the job and
// its extracted tracks.
func (h *Handlers) DeleteSplit(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	err := h.service.DeleteJob(r.Context(), jobID)
	switch {
	case err == nil:
		h.logger.Info("split job deleted", slog.String("job_id", jobID))
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
	case errors.Is(err, job.ErrJobActive):
		writeError(w, http.StatusConflict, "job is still running", "JOB_ACTIVE")
	default:
		h.logger.Error("failed to delete job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete job", "JOB_DELETE_FAILED")
	}
}

// toSplitResponse maps a job snapshot to its HTTP representation.
func toSplitResponse(j *job.Job) SplitResponse {
	snapshot := j.Clone()
	resp := SplitResponse{
		ID:        snapshot.ID,
		Status:    string(snapshot.Status),
		Progress:  snapshot.Progress,
		Silences:  snapshot.Silences,
		Error:     snapshot.Error,
		Tracks:    make([]TrackResponse, 0, len(snapshot.Tracks)),
		CreatedAt: snapshot.CreatedAt,
		UpdatedAt: snapshot.UpdatedAt,
	}
	for _, t := range snapshot.Tracks {
		tr := TrackResponse{
			Number:     t.Index + 1,
			Name:       t.Name,
			Start:      t.Interval.Start,
			StartClock: boundary.FormatClock(t.Interval.Start),
			Status:     string(t.Status),
			OutputPath: t.OutputPath,
			URL:        t.URL,
			Error:      t.Error,
		}
		if !t.Interval.ToEnd() {
			end := t.Interval.End
			tr.End = &end
		}
		resp.Tracks = append(resp.Tracks, tr)
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
