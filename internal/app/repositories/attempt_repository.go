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
	"github.com/acadion/examcore/internal/db"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// AttemptRepository handles attempt and attempt answer database operations.
// Methods that read-modify-write an attempt take a row lock first so
// concurrent requests from the same student serialize instead of racing.
type AttemptRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttemptRepository creates a new AttemptRepository
func NewAttemptRepository(db *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var attemptColumns = []string{
	"id", "exam_id", "student_id", "secret_hash", "status", "started_at",
	"last_seen_at", "submitted_at", "objective_score", "total_score",
	"marked_by", "marked_at",
}

func scanAttempt(row pgx.Row) (*models.Attempt, error) {
	var a models.Attempt
	err := row.Scan(
		&a.ID, &a.ExamID, &a.StudentID, &a.SecretHash, &a.Status,
		&a.StartedAt, &a.LastSeenAt, &a.SubmittedAt, &a.ObjectiveScore,
		&a.TotalScore, &a.MarkedBy, &a.MarkedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a fresh not_started attempt. The (exam_id, student_id)
// unique constraint surfaces as-is so the caller can detect a concurrent
// creation and re-read instead.
func (r *AttemptRepository) Create(ctx context.Context, examID, studentID int64, secretHash string) (int64, error) {
	sql, args, err := r.sb.Insert("attempts").
		Columns("exam_id", "student_id", "secret_hash", "status").
		Values(examID, studentID, secretHash, models.AttemptNotStarted).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create attempt query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, err
	}
	logger.Info().Int64("attemptID", id).Int64("examID", examID).Int64("studentID", studentID).Msg("Attempt created")
	return id, nil
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id int64) (*models.Attempt, error) {
	sql, args, err := r.sb.Select(attemptColumns...).
		From("attempts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get attempt query: %w", err)
	}
	a, err := scanAttempt(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("attempt not found")
		}
		return nil, fmt.Errorf("error querying attempt ID=%d: %w", id, err)
	}
	return a, nil
}

// GetByExamAndStudent retrieves the single attempt for a (exam, student)
// pair, if one exists.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID, studentID int64) (*models.Attempt, error) {
	sql, args, err := r.sb.Select(attemptColumns...).
		From("attempts").
		Where(squirrel.Eq{"exam_id": examID, "student_id": studentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get attempt query: %w", err)
	}
	a, err := scanAttempt(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("attempt not found")
		}
		return nil, fmt.Errorf("error querying attempt exam=%d student=%d: %w", examID, studentID, err)
	}
	return a, nil
}

// ListByExam returns all attempts for an exam, for monitoring and grading
// views.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID int64) ([]models.Attempt, error) {
	sql, args, err := r.sb.Select(attemptColumns...).
		From("attempts").
		Where(squirrel.Eq{"exam_id": examID}).
		OrderBy("student_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attempts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		attempts = append(attempts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempt rows: %w", err)
	}
	return attempts, nil
}

// UpdateSecretHash replaces the continuation secret hash. The old secret
// stops working the moment this commits.
func (r *AttemptRepository) UpdateSecretHash(ctx context.Context, id int64, secretHash string) error {
	sql, args, err := r.sb.Update("attempts").
		Set("secret_hash", secretHash).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update secret query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating secret for attempt ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("attempt not found")
	}
	return nil
}

// StartAttempt moves not_started to in_progress, fixing started_at. A
// guarded single statement makes concurrent begins converge on one start
// time: only the first caller flips the row, later ones see zero rows and
// just re-read.
func (r *AttemptRepository) StartAttempt(ctx context.Context, id int64, now time.Time) error {
	sql, args, err := r.sb.Update("attempts").
		SetMap(map[string]interface{}{
			"status":       models.AttemptInProgress,
			"started_at":   now,
			"last_seen_at": now,
		}).
		Where(squirrel.Eq{"id": id, "status": models.AttemptNotStarted}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build start attempt query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error starting attempt ID=%d: %w", id, err)
	}
	return nil
}

// Touch records liveness for an in_progress attempt. Zero rows means the
// attempt is no longer running.
func (r *AttemptRepository) Touch(ctx context.Context, id int64, now time.Time) error {
	sql, args, err := r.sb.Update("attempts").
		Set("last_seen_at", now).
		Where(squirrel.Eq{"id": id, "status": models.AttemptInProgress}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build heartbeat query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error recording heartbeat for attempt ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("attempt is not in progress")
	}
	return nil
}

func lockAttempt(ctx context.Context, tx pgx.Tx, sb squirrel.StatementBuilderType, id int64) (*models.Attempt, error) {
	sql, args, err := sb.Select(attemptColumns...).
		From("attempts").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build lock attempt query: %w", err)
	}
	a, err := scanAttempt(tx.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("attempt not found")
		}
		return nil, fmt.Errorf("error locking attempt ID=%d: %w", id, err)
	}
	return a, nil
}

func upsertAnswersTx(ctx context.Context, tx pgx.Tx, sb squirrel.StatementBuilderType, attemptID int64, answers []models.AttemptAnswer) error {
	for _, ans := range answers {
		sql, args, err := sb.Insert("attempt_answers").
			Columns("attempt_id", "question_number", "objective_choice", "free_text").
			Values(attemptID, ans.QuestionNumber, ans.ObjectiveChoice, ans.FreeText).
			Suffix("ON CONFLICT (attempt_id, question_number) DO UPDATE SET objective_choice = EXCLUDED.objective_choice, free_text = EXCLUDED.free_text").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build upsert answer query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error saving answer %d for attempt ID=%d: %w", ans.QuestionNumber, attemptID, err)
		}
	}
	return nil
}

func listAnswersTx(ctx context.Context, q queryer, sb squirrel.StatementBuilderType, attemptID int64) ([]models.AttemptAnswer, error) {
	sql, args, err := sb.Select("attempt_id", "question_number", "objective_choice", "free_text", "mark").
		From("attempt_answers").
		Where(squirrel.Eq{"attempt_id": attemptID}).
		OrderBy("question_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list answers query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []models.AttemptAnswer
	for rows.Next() {
		var ans models.AttemptAnswer
		if err := rows.Scan(&ans.AttemptID, &ans.QuestionNumber, &ans.ObjectiveChoice, &ans.FreeText, &ans.Mark); err != nil {
			return nil, fmt.Errorf("failed to scan answer row: %w", err)
		}
		answers = append(answers, ans)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer rows: %w", err)
	}
	return answers, nil
}

// queryer is the subset of pgx querying shared by pools and transactions.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UpsertAnswers saves a batch of answers under the attempt's row lock,
// rejecting the write if the attempt is not in progress. last_seen_at moves
// forward as a side effect since a save proves liveness.
func (r *AttemptRepository) UpsertAnswers(ctx context.Context, attemptID int64, answers []models.AttemptAnswer, now time.Time) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		a, err := lockAttempt(ctx, tx, r.sb, attemptID)
		if err != nil {
			return err
		}
		if a.Status != models.AttemptInProgress {
			return apperrors.NewConflictError("attempt is not in progress")
		}
		if err := upsertAnswersTx(ctx, tx, r.sb, attemptID, answers); err != nil {
			return err
		}

		sql, args, err := r.sb.Update("attempts").
			Set("last_seen_at", now).
			Where(squirrel.Eq{"id": attemptID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build touch query: %w", err)
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
}

// ScoreFn computes the objective score from the full answer set, or returns
// nil when the attempt is not auto-gradable yet.
type ScoreFn func(answers []models.AttemptAnswer) *int

// SubmitAttempt finalizes an attempt: the last answer batch is merged, the
// score callback runs over the complete answer set and the row flips to
// submitted, all under the attempt's row lock. A repeat submit is rejected;
// the first submission stands.
func (r *AttemptRepository) SubmitAttempt(ctx context.Context, attemptID int64, answers []models.AttemptAnswer, now time.Time, score ScoreFn) (*models.Attempt, error) {
	var result *models.Attempt
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		a, err := lockAttempt(ctx, tx, r.sb, attemptID)
		if err != nil {
			return err
		}
		if a.Status == models.AttemptSubmitted {
			return apperrors.NewConflictError("attempt has already been submitted")
		}
		if a.Status != models.AttemptInProgress {
			return apperrors.NewConflictError("attempt has not begun")
		}

		if err := upsertAnswersTx(ctx, tx, r.sb, attemptID, answers); err != nil {
			return err
		}
		all, err := listAnswersTx(ctx, tx, r.sb, attemptID)
		if err != nil {
			return err
		}

		objectiveScore := score(all)
		sql, args, err := r.sb.Update("attempts").
			SetMap(map[string]interface{}{
				"status":          models.AttemptSubmitted,
				"submitted_at":    now,
				"objective_score": objectiveScore,
				"total_score":     objectiveScore,
			}).
			Where(squirrel.Eq{"id": attemptID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submit query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error submitting attempt ID=%d: %w", attemptID, err)
		}

		a.Status = models.AttemptSubmitted
		a.SubmittedAt = &now
		a.ObjectiveScore = objectiveScore
		a.TotalScore = objectiveScore
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Int64("attemptID", attemptID).Msg("Attempt submitted")
	return result, nil
}

// ReopenAttempt rolls a submitted attempt back to in_progress within the
// grace window. The guard compares submitted_at inside the statement so a
// stale read cannot reopen an attempt whose window has passed.
func (r *AttemptRepository) ReopenAttempt(ctx context.Context, id int64, notBefore, now time.Time) error {
	sql, args, err := r.sb.Update("attempts").
		SetMap(map[string]interface{}{
			"status":          models.AttemptInProgress,
			"submitted_at":    nil,
			"objective_score": nil,
			"total_score":     nil,
			"last_seen_at":    now,
		}).
		Where(squirrel.Eq{"id": id, "status": models.AttemptSubmitted}).
		Where(squirrel.GtOrEq{"submitted_at": notBefore}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build reopen attempt query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error reopening attempt ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("attempt can no longer be reopened")
	}
	logger.Info().Int64("attemptID", id).Msg("Submitted attempt reopened within grace window")
	return nil
}

// ListAnswers returns all answers of an attempt ordered by question number.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID int64) ([]models.AttemptAnswer, error) {
	return listAnswersTx(ctx, r.db, r.sb, attemptID)
}

// RegradeSubmitted recomputes objective scores for every submitted attempt
// of an exam in one transaction, for answer key changes after the fact.
// Manually marked attempts keep their total untouched only if the exam is
// not objective; for objective exams the recomputed score wins.
func (r *AttemptRepository) RegradeSubmitted(ctx context.Context, examID int64, score ScoreFn) (int, error) {
	var regraded int
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		idSql, idArgs, err := r.sb.Select("id").
			From("attempts").
			Where(squirrel.Eq{"exam_id": examID, "status": models.AttemptSubmitted}).
			OrderBy("id ASC").
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build regrade list query: %w", err)
		}
		rows, err := tx.Query(ctx, idSql, idArgs...)
		if err != nil {
			return fmt.Errorf("failed to query submitted attempts: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan attempt id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating attempt ids: %w", err)
		}

		for _, id := range ids {
			answers, err := listAnswersTx(ctx, tx, r.sb, id)
			if err != nil {
				return err
			}
			newScore := score(answers)
			upSql, upArgs, err := r.sb.Update("attempts").
				SetMap(map[string]interface{}{
					"objective_score": newScore,
					"total_score":     newScore,
				}).
				Where(squirrel.Eq{"id": id}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build regrade update query: %w", err)
			}
			if _, err := tx.Exec(ctx, upSql, upArgs...); err != nil {
				return fmt.Errorf("error regrading attempt ID=%d: %w", id, err)
			}
			regraded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info().Int64("examID", examID).Int("regraded", regraded).Msg("Submitted attempts regraded")
	return regraded, nil
}

// ApplyManualMarks records per-question marks on a submitted attempt and
// sets the resulting total. Marks may only land on questions the student
// actually answered; unknown question numbers are rejected.
func (r *AttemptRepository) ApplyManualMarks(ctx context.Context, attemptID int64, marks map[int]int, total int, markedBy int64, now time.Time) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		a, err := lockAttempt(ctx, tx, r.sb, attemptID)
		if err != nil {
			return err
		}
		if a.Status != models.AttemptSubmitted {
			return apperrors.NewPreconditionError("attempt has not been submitted")
		}

		for qn, mark := range marks {
			sql, args, err := r.sb.Update("attempt_answers").
				Set("mark", mark).
				Where(squirrel.Eq{"attempt_id": attemptID, "question_number": qn}).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build mark update query: %w", err)
			}
			cmdTag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return fmt.Errorf("error marking question %d of attempt ID=%d: %w", qn, attemptID, err)
			}
			if cmdTag.RowsAffected() == 0 {
				return apperrors.NewValidationError(fmt.Sprintf("no answer recorded for question %d", qn))
			}
		}

		sql, args, err := r.sb.Update("attempts").
			SetMap(map[string]interface{}{
				"total_score": total,
				"marked_by":   markedBy,
				"marked_at":   now,
			}).
			Where(squirrel.Eq{"id": attemptID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build total update query: %w", err)
		}
		_, err = tx.Exec(ctx, sql, args...)
		return err
	})
}

// OverdueAttempt pairs an overdue attempt with the exam data needed to
// grade it on forced submission.
type OverdueAttempt struct {
	AttemptID int64
	ExamID    int64
	TenantID  int64
}

// ListOverdue finds in_progress attempts of live exams whose per-student
// deadline plus the grace window has passed. The sweeper submits each one
// individually so a single bad row cannot block the rest.
func (r *AttemptRepository) ListOverdue(ctx context.Context, now time.Time, grace time.Duration) ([]OverdueAttempt, error) {
	sql, args, err := r.sb.Select("a.id", "a.exam_id", "e.tenant_id").
		From("attempts a").
		Join("exams e ON e.id = a.exam_id").
		Where(squirrel.Eq{"a.status": models.AttemptInProgress, "e.status": models.ExamLive}).
		Where(squirrel.Expr("a.started_at + e.duration_minutes * INTERVAL '1 minute' < ?", now.Add(-grace))).
		OrderBy("a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build overdue attempts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue attempts: %w", err)
	}
	defer rows.Close()

	var overdue []OverdueAttempt
	for rows.Next() {
		var o OverdueAttempt
		if err := rows.Scan(&o.AttemptID, &o.ExamID, &o.TenantID); err != nil {
			return nil, fmt.Errorf("failed to scan overdue row: %w", err)
		}
		overdue = append(overdue, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue rows: %w", err)
	}
	return overdue, nil
}
