package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/abdalhababsah/outlier/internal/auth"
	jobmetrics "github.com/abdalhababsah/outlier/internal/jobs"
)

// SessionSweepJob deletes expired session rows. The Redis copy of a session
// expires on its own; this keeps the Postgres audit table from growing forever.
type SessionSweepJob struct {
	Auth    *auth.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionSweepJob wires dependencies for the sweep handler.
func NewSessionSweepJob(authSvc *auth.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionSweepJob {
	return &SessionSweepJob{
		Auth:    authSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes session sweep tasks.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Auth == nil {
		return errors.New("session sweep: handler not configured")
	}
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskSessionSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().Add(-time.Duration(payload.GraceMinutes) * time.Minute)
	logger := j.logger().With(slog.Time("cutoff", cutoff))

	deleted, err := j.Auth.PurgeExpiredSessions(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("purge expired sessions", slog.Any("error", err))
		return resultErr
	}

	j.metrics().AddRows(TaskSessionSweep, deleted)
	logger.Info("completed session sweep", slog.Int64("deleted", deleted))
	return resultErr
}

func (j *SessionSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionSweep))
	}
	return slog.Default().With(slog.String("job", TaskSessionSweep))
}

func (j *SessionSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SessionSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
