package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// ActivityRepository appends audit records. Writes are best effort: a
// failure is logged and swallowed so it can never abort the operation being
// recorded.
type ActivityRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Record appends one activity entry.
func (r *ActivityRepository) Record(ctx context.Context, entry models.ActivityEntry) {
	sql, args, err := r.sb.Insert("activity_logs").
		Columns("tenant_id", "actor_id", "action", "detail", "created_at").
		Values(entry.TenantID, entry.ActorID, entry.Action, entry.Detail, entry.CreatedAt).
		ToSql()
	if err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("Failed to build activity log query")
		return
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Warn().Err(err).Str("action", entry.Action).Msg("Failed to write activity log entry")
	}
}

// ListRecent returns the newest entries for a tenant, for the admin activity
// view.
func (r *ActivityRepository) ListRecent(ctx context.Context, tenantID int64, limit int) ([]models.ActivityEntry, error) {
	sql, args, err := r.sb.Select("tenant_id", "actor_id", "action", "detail", "created_at").
		From("activity_logs").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.TenantID, &e.ActorID, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
