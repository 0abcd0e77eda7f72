package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/abdalhababsah/outlier/internal/jobs"
)

const defaultAuditRetentionDays = 180

// AuditTrimJob deletes audit log rows older than the retention window.
type AuditTrimJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditTrimJob wires dependencies for the trim handler.
func NewAuditTrimJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditTrimJob {
	return &AuditTrimJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes audit trim tasks.
func (j *AuditTrimJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("audit trim: handler not configured")
	}
	var payload AuditTrimPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultAuditRetentionDays
	}

	tracker := j.metrics().Track(TaskAuditTrim)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().AddDate(0, 0, -payload.RetentionDays)
	logger := j.logger().With(slog.Time("cutoff", cutoff))

	tag, err := j.Pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("trim audit logs", slog.Any("error", err))
		return resultErr
	}

	j.metrics().AddRows(TaskAuditTrim, tag.RowsAffected())
	logger.Info("completed audit trim", slog.Int64("deleted", tag.RowsAffected()))
	return resultErr
}

func (j *AuditTrimJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditTrim))
	}
	return slog.Default().With(slog.String("job", TaskAuditTrim))
}

func (j *AuditTrimJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AuditTrimJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
