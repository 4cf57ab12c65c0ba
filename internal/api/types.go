package api

import "time"

// DaemonStatus is the running-statistics snapshot served by the status API.
type DaemonStatus struct {
	RepoPath        string    `json:"repo_path"`
	Interval        string    `json:"interval"` // Duration string e.g. "10m"
	StartedAt       time.Time `json:"started_at"`
	Cycles          uint64    `json:"cycles"`
	Successes       uint64    `json:"successes"`
	Failures        uint64    `json:"failures"`
	SuccessRate     float64   `json:"success_rate"` // percentage, 0 when no cycles ran
	LastSuccessAt   time.Time `json:"last_success_at"`
	LastStage       string    `json:"last_stage"`
	LastError       string    `json:"last_error,omitempty"`
	ErrorRecovery   bool      `json:"error_recovery"`
	DetailedLogging bool      `json:"detailed_logging"`
}

// HealthSnapshot mirrors the daemon's most recent working-copy health report.
type HealthSnapshot struct {
	CheckedAt          time.Time `json:"checked_at"`
	UncommittedChanges bool      `json:"uncommitted_changes"`
	UntrackedFiles     []string  `json:"untracked_files,omitempty"`
	MergeInProgress    bool      `json:"merge_in_progress"`
	RebaseInProgress   bool      `json:"rebase_in_progress"`
	IntegrityOK        bool      `json:"integrity_ok"`
	Issues             []string  `json:"issues,omitempty"`
}

// AttemptSummary is one journal row as served over the API.
type AttemptSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stage      string    `json:"stage"`
	Success    bool      `json:"success"`
	CommitHash string    `json:"commit_hash,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// APIResponse is a standard wrapper for API responses.
type APIResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
