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
	"github.com/abdalhababsah/outlier/internal/rbac"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const defaultWarmupLimit = 200

// GrantsWarmupJob loads role and permission grants for recently active users
// so the first authorised request after a deploy hits a warm cache.
type GrantsWarmupJob struct {
	RBAC    *rbac.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewGrantsWarmupJob wires dependencies for the warmup handler.
func NewGrantsWarmupJob(rbacSvc *rbac.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *GrantsWarmupJob {
	return &GrantsWarmupJob{
		RBAC:    rbacSvc,
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes grant warmup tasks.
func (j *GrantsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("grants warmup: handler not configured")
	}
	var payload GrantsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultWarmupLimit
	}

	tracker := j.metrics().Track(TaskGrantsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("limit", payload.Limit))
	logger.Info("starting grants warmup")

	userIDs, err := j.fetchActiveUsers(ctx, payload.Limit)
	if err != nil {
		resultErr = err
		logger.Error("load active users", slog.Any("error", err))
		return resultErr
	}
	if len(userIDs) == 0 {
		logger.Info("no active users to warm")
		return resultErr
	}

	start := j.now()
	warmed := 0
	for _, userID := range userIDs {
		if err := j.warmUser(ctx, userID); err != nil {
			resultErr = err
			logger.Error("warm user grants", slog.Int64("user_id", userID), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	j.metrics().AddRows(TaskGrantsWarmup, int64(warmed))
	logger.Info("completed grants warmup", slog.Int("users", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *GrantsWarmupJob) warmUser(ctx context.Context, userID int64) error {
	if j.RBAC == nil {
		return nil
	}
	userCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := j.RBAC.Grants(userCtx, userID)
	return err
}

func (j *GrantsWarmupJob) fetchActiveUsers(ctx context.Context, limit int) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("grants warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT DISTINCT u.id
		FROM users u
		JOIN sessions s ON s.user_id = u.id
		WHERE u.is_active AND s.expires_at > now()
		ORDER BY u.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (j *GrantsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGrantsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskGrantsWarmup))
}

func (j *GrantsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *GrantsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
