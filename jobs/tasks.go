package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGrantsWarmup pre-populates the Redis grant snapshot cache.
	TaskGrantsWarmup = "rbac:grants:warmup"
	// TaskSessionSweep removes expired session rows from Postgres.
	TaskSessionSweep = "auth:sessions:sweep"
	// TaskAuditTrim prunes audit log rows past the retention window.
	TaskAuditTrim = "audit:trim"
)

// GrantsWarmupPayload selects which users get their grants pre-loaded.
type GrantsWarmupPayload struct {
	// Limit caps how many recently active users are warmed per run.
	Limit int `json:"limit"`
}

// SessionSweepPayload carries options for the session sweep job.
type SessionSweepPayload struct {
	// GraceMinutes keeps sessions around for a short window past expiry.
	GraceMinutes int `json:"grace_minutes"`
}

// AuditTrimPayload configures the audit retention job.
type AuditTrimPayload struct {
	// RetentionDays is how long audit rows are kept. Zero means the default.
	RetentionDays int `json:"retention_days"`
}

// NewGrantsWarmupTask constructs the warmup task.
func NewGrantsWarmupTask(payload GrantsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGrantsWarmup, data), nil
}

// NewSessionSweepTask constructs the session sweep task.
func NewSessionSweepTask(payload SessionSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, data), nil
}

// NewAuditTrimTask constructs the audit trim task.
func NewAuditTrimTask(payload AuditTrimPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditTrim, data), nil
}
