package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSessionsPurge is the task type for removing expired session rows.
	TaskTypeSessionsPurge = "sessions:purge"
)

// NewSessionsPurgeTask constructs an Asynq task. The task carries no
// payload, the handler works off the sessions table directly.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionsPurge, nil)
}

// PurgeExpiredSessions deletes session audit rows past their expiry.
func PurgeExpiredSessions(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if pool == nil {
		return nil
	}
	tag, err := pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		if logger != nil {
			logger.Error("purge expired sessions", slog.Any("error", err))
		}
		return err
	}
	if logger != nil {
		logger.Info("purged expired sessions",
			slog.String("job", "sessions_purge"),
			slog.Int64("removed", tag.RowsAffected()))
	}
	return nil
}

// NewSessionsPurgeHandler binds the purge job to its dependencies.
func NewSessionsPurgeHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return PurgeExpiredSessions(ctx, pool, logger)
	}
}
