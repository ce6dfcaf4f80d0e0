package model

import "time"

// RunStatus represents the current state of a stage run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageEnrich   Stage = "enrich"
	StageDownload Stage = "download"
	StageExtract  Stage = "extract"
	StagePlan     Stage = "plan"
)

// Run is one execution of a stage for a platform role.
type Run struct {
	ID        string      `json:"id"`
	Platform  string      `json:"platform"`
	Stage     Stage       `json:"stage"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds the counts produced by a finished stage.
type RunSummary struct {
	Total    int            `json:"total"`
	Counts   map[string]int `json:"counts,omitempty"`
	Outputs  []string       `json:"outputs,omitempty"`
	Duration int64          `json:"duration_ms"`
}
