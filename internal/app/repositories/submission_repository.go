package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// SubmissionRepository handles exam submission database operations
type SubmissionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var submissionColumns = []string{
	"id", "tenant_id", "teacher_id", "class_id", "subject_id", "session_id",
	"term_id", "exam_type", "duration_minutes", "question_count",
	"marks_per_question", "paper_file_ref", "source_file_ref", "status",
	"rejection_reason", "reviewed_by", "reviewed_at", "created_at",
}

func scanSubmission(row pgx.Row) (*models.ExamSubmission, error) {
	var s models.ExamSubmission
	err := row.Scan(
		&s.ID, &s.TenantID, &s.TeacherID, &s.ClassID, &s.SubjectID,
		&s.SessionID, &s.TermID, &s.ExamType, &s.DurationMinutes,
		&s.QuestionCount, &s.MarksPerQuestion, &s.PaperFileRef,
		&s.SourceFileRef, &s.Status, &s.RejectionReason, &s.ReviewedBy,
		&s.ReviewedAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new pending submission and returns its id.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.ExamSubmission) (int64, error) {
	sql, args, err := r.sb.Insert("exam_submissions").
		Columns(
			"tenant_id", "teacher_id", "class_id", "subject_id", "session_id",
			"term_id", "exam_type", "duration_minutes", "question_count",
			"marks_per_question", "paper_file_ref", "source_file_ref", "status",
		).
		Values(
			s.TenantID, s.TeacherID, s.ClassID, s.SubjectID, s.SessionID,
			s.TermID, s.ExamType, s.DurationMinutes, s.QuestionCount,
			s.MarksPerQuestion, s.PaperFileRef, s.SourceFileRef, models.SubmissionPending,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create submission query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Msg("Error inserting exam submission")
		return 0, fmt.Errorf("error inserting exam submission: %w", err)
	}

	logger.Info().Int64("submissionID", id).Int64("teacherID", s.TeacherID).Msg("Exam submission created")
	return id, nil
}

// GetByID retrieves a submission scoped to a tenant.
func (r *SubmissionRepository) GetByID(ctx context.Context, tenantID, id int64) (*models.ExamSubmission, error) {
	sql, args, err := r.sb.Select(submissionColumns...).
		From("exam_submissions").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get submission query: %w", err)
	}

	s, err := scanSubmission(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exam submission not found")
		}
		logger.Error().Err(err).Int64("submissionID", id).Msg("Error querying exam submission")
		return nil, fmt.Errorf("error querying submission ID=%d: %w", id, err)
	}
	return s, nil
}

// List retrieves submissions for a tenant with optional teacher and status
// filters, newest first.
func (r *SubmissionRepository) List(ctx context.Context, tenantID int64, teacherID *int64, status *models.SubmissionStatus, offset uint64, limit int) ([]models.ExamSubmission, int64, error) {
	where := squirrel.And{squirrel.Eq{"tenant_id": tenantID}}
	if teacherID != nil {
		where = append(where, squirrel.Eq{"teacher_id": *teacherID})
	}
	if status != nil {
		where = append(where, squirrel.Eq{"status": *status})
	}

	countSql, countArgs, err := r.sb.Select("COUNT(*)").
		From("exam_submissions").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count submissions query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	if total == 0 {
		return []models.ExamSubmission{}, 0, nil
	}

	sql, args, err := r.sb.Select(submissionColumns...).
		From("exam_submissions").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list submissions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.ExamSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission row: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating submission rows: %w", err)
	}
	return subs, total, nil
}

// MarkApprovedTx flips a pending submission to approved inside the approval
// transaction.
func (r *SubmissionRepository) MarkApprovedTx(ctx context.Context, tx pgx.Tx, tenantID, id, reviewerID int64, now time.Time) error {
	sql, args, err := r.sb.Update("exam_submissions").
		SetMap(map[string]interface{}{
			"status":      models.SubmissionApproved,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
		}).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build approve submission query: %w", err)
	}
	cmdTag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error approving submission ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("exam submission not found")
	}
	return nil
}

// MarkRejected records a rejection. Rejection is allowed from any prior
// state, so no status guard is applied.
func (r *SubmissionRepository) MarkRejected(ctx context.Context, tenantID, id, reviewerID int64, reason string, now time.Time) error {
	sql, args, err := r.sb.Update("exam_submissions").
		SetMap(map[string]interface{}{
			"status":           models.SubmissionRejected,
			"rejection_reason": reason,
			"reviewed_by":      reviewerID,
			"reviewed_at":      now,
		}).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reject submission query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error rejecting submission ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("exam submission not found")
	}
	logger.Info().Int64("submissionID", id).Msg("Exam submission rejected")
	return nil
}

// Delete removes a submission row. Callers enforce the rejected-only rule.
func (r *SubmissionRepository) Delete(ctx context.Context, tenantID, id int64) error {
	sql, args, err := r.sb.Delete("exam_submissions").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete submission query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting submission ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("exam submission not found")
	}
	logger.Info().Int64("submissionID", id).Msg("Exam submission deleted")
	return nil
}
