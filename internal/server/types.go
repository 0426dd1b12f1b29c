// Package server provides the HTTP API for tracksplit.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// CreateSplitRequest is the HTTP request body for splitting a recording.
type CreateSplitRequest struct {
	// AudioBase64 is the base64-encoded merged recording.
	AudioBase64 string `json:"audio_base64" validate:"required,base64"`
	// FileName is the original file name; its extension selects the output container.
	FileName string `json:"file_name" validate:"required,max=255"`
	// Artist is written into every track.
	Artist string `json:"artist" validate:"max=200"`
	// Album is written into every track.
	Album string `json:"album" validate:"max=200"`
	// TrackNames names tracks by position.
	TrackNames []string `json:"track_names" validate:"max=999,dive,max=200"`
	// MinTrackSec overrides the minimum track length.
	MinTrackSec float64 `json:"min_track_sec" validate:"gte=0"`
	// NoiseDB overrides the silence noise floor.
	NoiseDB float64 `json:"noise_db" validate:"lte=0"`
	// MinSilenceSec overrides the minimum silence duration.
	MinSilenceSec float64 `json:"min_silence_sec" validate:"gte=0"`
	// PushToS3 uploads every extracted track to S3.
	PushToS3 bool `json:"push_to_s3"`
}

// CreateSplitResponse is the HTTP response after creating a split job.
type CreateSplitResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// TrackResponse describes one resolved track.
type TrackResponse struct {
	Number int     `json:"number"`
	Name   string  `json:"name"`
	Start  float64 `json:"start"`
	// End is null for the final track, which runs to the end of the source.
	End        *float64 `json:"end"`
	StartClock string   `json:"start_clock"`
	Status     string   `json:"status"`
	OutputPath string   `json:"output_path,omitempty"`
	URL        string   `json:"url,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// SplitResponse is the HTTP response for getting split job details.
type SplitResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// Silences is the number of silence spans detected.
	Silences int `json:"silences"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// Tracks lists the resolved tracks once detection has finished.
	Tracks    []TrackResponse `json:"tracks"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ListSplitsResponse is the HTTP response for listing split jobs.
type ListSplitsResponse struct {
	Splits []SplitResponse `json:"splits"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
