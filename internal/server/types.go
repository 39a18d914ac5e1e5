// Package server provides the minimal HTTP intake spec.md §6 names:
// create/get/result/download/cancel for transcription jobs. It includes
// handlers, middleware, routes, and DTOs separated from domain types.
package server

import "github.com/sealium/transcription-service/internal/jobstate"

// InputDTO is the wire shape of jobstate.InputDescriptor.
type InputDTO struct {
	Type  string `json:"type" validate:"required,oneof=url path upload"`
	Value string `json:"value"`
}

// OptionsDTO is the wire shape of jobstate.Options. Every field is
// optional; zero values are filled in by jobstate.Options.WithDefaults.
type OptionsDTO struct {
	Language           string `json:"language,omitempty"`
	ChunkMode          string `json:"chunk_mode,omitempty" validate:"omitempty,oneof=silence vad"`
	MaxParallelChunks  int    `json:"max_parallel_chunks,omitempty" validate:"omitempty,min=1"`
	ProduceJSON        *bool  `json:"produce_json,omitempty"`
	ProduceVTT         *bool  `json:"produce_vtt,omitempty"`
	ProducePDF         *bool  `json:"produce_pdf,omitempty"`
	CookiesFromBrowser string `json:"cookies_from_browser,omitempty"`
}

// CreateJobRequest is the JSON request body for POST /v1/transcriptions/jobs.
type CreateJobRequest struct {
	Input   InputDTO    `json:"input" validate:"required"`
	Options *OptionsDTO `json:"options,omitempty"`
}

// CreateJobResponse is returned with 202 Accepted after a job is enqueued.
type CreateJobResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
	ResultURL string `json:"result_url"`
}

// ResultResponse is returned by GET .../result once a job is done.
type ResultResponse struct {
	JobID       string          `json:"job_id"`
	Status      string          `json:"status"`
	Result      *jobstate.Result `json:"result"`
	DownloadURL string          `json:"download_url"`
}

// ErrorResponse is the JSON body written for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// resolveOptions merges a possibly-nil OptionsDTO into jobstate.Options
// (defaults applied), following jobstate.Options.WithDefaults for fields
// the caller left zero-valued.
func resolveOptions(dto *OptionsDTO) jobstate.Options {
	opts := jobstate.Options{}
	if dto != nil {
		opts.Language = dto.Language
		opts.ChunkMode = jobstate.ChunkMode(dto.ChunkMode)
		opts.MaxParallelChunks = dto.MaxParallelChunks
		opts.CookiesFromBrowser = dto.CookiesFromBrowser
		opts.ProduceJSON = dto.ProduceJSON == nil || *dto.ProduceJSON
		opts.ProduceVTT = dto.ProduceVTT == nil || *dto.ProduceVTT
		opts.ProducePDF = dto.ProducePDF == nil || *dto.ProducePDF
	} else {
		opts.ProduceJSON = true
		opts.ProduceVTT = true
		opts.ProducePDF = true
	}
	return opts.WithDefaults()
}
