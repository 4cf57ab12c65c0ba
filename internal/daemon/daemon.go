// Package daemon implements the repository sync loop: a single-threaded
// scheduler that validates, health-checks, and synchronizes one working copy
// against its remote on a fixed interval.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/api"
	"github.com/gitsyncd/gitsyncd/internal/config"
	"github.com/gitsyncd/gitsyncd/internal/gitx"
	"github.com/gitsyncd/gitsyncd/internal/journal"
	"github.com/gitsyncd/gitsyncd/internal/logging"
	"github.com/google/uuid"
)

const defaultRemote = "origin"

// Stats accumulates counters for the daemon's lifetime. It is owned by the
// daemon and reset only on process restart.
type Stats struct {
	StartedAt     time.Time
	Cycles        uint64
	Successes     uint64
	Failures      uint64
	LastSuccessAt time.Time
	LastStage     string
	LastError     string
}

// SuccessRate returns the percentage of successful cycles, 0 before any ran.
func (s Stats) SuccessRate() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Cycles) * 100
}

// Daemon keeps one working copy synchronized with its remote.
type Daemon struct {
	cfg     config.Config
	backend gitx.Backend
	journal journal.Store
	logger  *slog.Logger

	mu         sync.Mutex
	stats      Stats
	lastHealth *HealthReport
}

// New creates a daemon. The journal store may be journal.Discard.
func New(cfg config.Config, backend gitx.Backend, store journal.Store, logger *slog.Logger) *Daemon {
	if store == nil {
		store = journal.Discard{}
	}
	return &Daemon{
		cfg:     cfg,
		backend: backend,
		journal: store,
		logger:  logger,
	}
}

// Run executes sync cycles until ctx is canceled, then logs final aggregate
// statistics. The first attempt runs immediately; each following attempt
// starts one interval after the previous one completed, so cycles never
// overlap. Exactly one daemon instance may run per working copy; concurrent
// instances against the same path are an operator error the daemon does not
// guard against.
func (d *Daemon) Run(ctx context.Context) {
	d.mu.Lock()
	d.stats.StartedAt = time.Now()
	d.mu.Unlock()

	d.logger.Info("sync daemon started",
		"repo", d.cfg.RepoPath,
		"interval", d.cfg.Interval.String(),
		"error_recovery", d.cfg.ErrorRecovery,
	)

	consecutiveFailures := 0
	if d.runCycle(ctx) {
		consecutiveFailures = 0
	} else {
		consecutiveFailures = 1
	}

	for {
		wait := d.nextWait(consecutiveFailures)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.logFinalStats()
			return
		case <-timer.C:
		}
		if d.runCycle(ctx) {
			consecutiveFailures = 0
		} else {
			consecutiveFailures++
		}
	}
}

// nextWait applies the optional backoff policy. With backoff disabled every
// cycle waits exactly the configured interval.
func (d *Daemon) nextWait(consecutiveFailures int) time.Duration {
	wait := d.cfg.Interval
	if !d.cfg.Backoff || consecutiveFailures == 0 {
		return wait
	}
	for i := 0; i < consecutiveFailures; i++ {
		wait *= 2
		if wait >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return wait
}

// runCycle performs one full cycle: validate, health check (with optional
// recovery), diagnostic connectivity probe, then the sync transaction.
// Any panic is contained here so the scheduling loop survives.
func (d *Daemon) runCycle(ctx context.Context) (succeeded bool) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sync cycle panicked", "panic", r)
			d.foldFailure(StageValidate, "panic during sync cycle")
			succeeded = false
		}
	}()

	d.mu.Lock()
	d.stats.Cycles++
	cycle := d.stats.Cycles
	d.mu.Unlock()

	d.logger.Debug("sync cycle starting", "cycle", cycle)

	if !d.ValidateRepository(ctx, d.cfg.RepoPath) {
		d.foldFailure(StageValidate, "repository validation failed")
		d.record(ctx, &SyncAttemptResult{
			StartedAt:  started,
			FinishedAt: time.Now(),
			Stage:      StageValidate,
		})
		return false
	}

	report := d.CheckHealth(ctx, d.cfg.RepoPath)
	d.mu.Lock()
	d.lastHealth = report
	d.mu.Unlock()
	if len(report.Issues) > 0 {
		d.logger.Warn("working copy health issues detected", "issues", len(report.Issues))
		for _, issue := range report.Issues {
			d.logger.Warn("health issue", "detail", issue)
		}
	}
	if d.cfg.ErrorRecovery && (report.MergeInProgress || report.RebaseInProgress) {
		d.AttemptRecovery(ctx, d.cfg.RepoPath, report)
		report = d.CheckHealth(ctx, d.cfg.RepoPath)
		d.mu.Lock()
		d.lastHealth = report
		d.mu.Unlock()
	}

	if d.cfg.DetailedLogging {
		if url, err := d.backend.RemoteURL(ctx, d.cfg.RepoPath, defaultRemote); err == nil {
			reachable := d.TestConnectivity(ctx, url)
			d.logger.Info("connectivity probe", "remote", url, "reachable", reachable)
		}
	}

	result := d.SyncOnce(ctx, d.cfg.RepoPath)
	d.fold(result)
	d.record(ctx, result)

	if result.Success {
		d.logger.Log(ctx, logging.LevelSuccess, "sync cycle completed",
			"cycle", cycle,
			"commit_created", result.CommitCreated,
		)
	} else {
		d.logger.Error("sync cycle failed",
			"cycle", cycle,
			"stage", result.Stage,
			"error", result.Err.Error(),
		)
	}
	return result.Success
}

func (d *Daemon) fold(result *SyncAttemptResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.LastStage = result.Stage
	if result.Success {
		d.stats.Successes++
		d.stats.LastSuccessAt = result.FinishedAt
		d.stats.LastError = ""
		return
	}
	d.stats.Failures++
	if result.Err != nil {
		d.stats.LastError = result.Err.Error()
	}
}

func (d *Daemon) foldFailure(stage, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Failures++
	d.stats.LastStage = stage
	d.stats.LastError = detail
}

// record persists the attempt to the journal. Journal failures are logged and
// otherwise ignored; sync behavior never depends on the journal.
func (d *Daemon) record(ctx context.Context, result *SyncAttemptResult) {
	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}
	record := &journal.AttemptRecord{
		ID:         uuid.NewString(),
		RepoPath:   d.cfg.RepoPath,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Stage:      result.Stage,
		Success:    result.Success,
		CommitHash: result.CommitHash,
		Error:      errText,
	}
	if err := d.journal.RecordAttempt(ctx, record); err != nil {
		d.logger.Warn("failed to journal sync attempt", "error", err)
	}
}

// Snapshot returns the current statistics for the status API.
func (d *Daemon) Snapshot() api.DaemonStatus {
	d.mu.Lock()
	stats := d.stats
	d.mu.Unlock()
	return api.DaemonStatus{
		RepoPath:        d.cfg.RepoPath,
		Interval:        d.cfg.Interval.String(),
		StartedAt:       stats.StartedAt,
		Cycles:          stats.Cycles,
		Successes:       stats.Successes,
		Failures:        stats.Failures,
		SuccessRate:     stats.SuccessRate(),
		LastSuccessAt:   stats.LastSuccessAt,
		LastStage:       stats.LastStage,
		LastError:       stats.LastError,
		ErrorRecovery:   d.cfg.ErrorRecovery,
		DetailedLogging: d.cfg.DetailedLogging,
	}
}

// LastHealth returns the most recent health report, or nil before the first
// cycle.
func (d *Daemon) LastHealth() *api.HealthSnapshot {
	d.mu.Lock()
	report := d.lastHealth
	d.mu.Unlock()
	if report == nil {
		return nil
	}
	return &api.HealthSnapshot{
		CheckedAt:          report.CheckedAt,
		UncommittedChanges: report.UncommittedChanges,
		UntrackedFiles:     report.UntrackedFiles,
		MergeInProgress:    report.MergeInProgress,
		RebaseInProgress:   report.RebaseInProgress,
		IntegrityOK:        report.IntegrityOK,
		Issues:             report.Issues,
	}
}

func (d *Daemon) logFinalStats() {
	d.mu.Lock()
	stats := d.stats
	d.mu.Unlock()
	d.logger.Info("sync daemon stopping",
		"total_cycles", stats.Cycles,
		"successful_syncs", stats.Successes,
		"failed_syncs", stats.Failures,
		"success_rate_pct", stats.SuccessRate(),
	)
}
