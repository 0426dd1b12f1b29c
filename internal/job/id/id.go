// Package id provides unique identifier generation for jobs.
package id

import "github.com/google/uuid"

// Prefix is prepended to every generated job ID.
const Prefix = "split-"

// Generate creates a new unique job ID.
// Format: split-<uuid v4>
// Example: split-9b2f6a0e-3c1d-4e4b-8f7a-2d5c9e1b0a44
func Generate() string {
	return Prefix + uuid.NewString()
}
