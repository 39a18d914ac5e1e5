// Package jobid provides unique identifier generation for transcription jobs.
package jobid

import "github.com/google/uuid"

// Generate creates a new opaque job identifier in UUID form.
func Generate() string {
	return uuid.NewString()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
