package repositories

import (
	"context"
	"encoding/json"
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

// ExamRepository handles exam and objective question database operations
type ExamRepository struct {
	db          *pgxpool.Pool
	sb          squirrel.StatementBuilderType
	submissions *SubmissionRepository
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(db *pgxpool.Pool, submissions *SubmissionRepository) *ExamRepository {
	return &ExamRepository{
		db:          db,
		sb:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		submissions: submissions,
	}
}

var examColumns = []string{
	"id", "tenant_id", "submission_id", "code", "class_id", "subject_id",
	"session_id", "term_id", "exam_type", "duration_minutes",
	"question_count", "marks_per_question", "status", "started_at",
	"ended_at", "answer_key", "answer_slip_released_at", "created_at",
}

func scanExam(row pgx.Row) (*models.Exam, error) {
	var (
		e      models.Exam
		rawKey []byte
	)
	err := row.Scan(
		&e.ID, &e.TenantID, &e.SubmissionID, &e.Code, &e.ClassID,
		&e.SubjectID, &e.SessionID, &e.TermID, &e.ExamType,
		&e.DurationMinutes, &e.QuestionCount, &e.MarksPerQuestion,
		&e.Status, &e.StartedAt, &e.EndedAt, &rawKey,
		&e.AnswerSlipReleasedAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rawKey) > 0 {
		if err := json.Unmarshal(rawKey, &e.AnswerKey); err != nil {
			return nil, fmt.Errorf("failed to decode answer key: %w", err)
		}
	}
	return &e, nil
}

// ApproveAndCreateExam performs the whole approval as one transaction: the
// submission flips to approved, the exam row is inserted and, for objective
// exams, the parsed questions are bulk inserted. Any failure leaves no state
// behind. A unique violation on the exam code surfaces unwrapped so the
// caller can retry with a fresh draw.
func (r *ExamRepository) ApproveAndCreateExam(ctx context.Context, exam *models.Exam, questions []models.ObjectiveQuestion, reviewerID int64, now time.Time) (int64, error) {
	var examID int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.submissions.MarkApprovedTx(ctx, tx, exam.TenantID, exam.SubmissionID, reviewerID, now); err != nil {
			return err
		}

		examSql, examArgs, err := r.sb.Insert("exams").
			Columns(
				"tenant_id", "submission_id", "code", "class_id", "subject_id",
				"session_id", "term_id", "exam_type", "duration_minutes",
				"question_count", "marks_per_question", "status",
			).
			Values(
				exam.TenantID, exam.SubmissionID, exam.Code, exam.ClassID,
				exam.SubjectID, exam.SessionID, exam.TermID, exam.ExamType,
				exam.DurationMinutes, exam.QuestionCount, exam.MarksPerQuestion,
				models.ExamApproved,
			).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create exam query: %w", err)
		}
		if err := tx.QueryRow(ctx, examSql, examArgs...).Scan(&examID); err != nil {
			return err
		}

		for _, q := range questions {
			qSql, qArgs, err := r.sb.Insert("objective_questions").
				Columns("exam_id", "question_number", "text", "option_a", "option_b", "option_c", "option_d", "option_e").
				Values(examID, q.QuestionNumber, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build insert question query: %w", err)
			}
			if _, err := tx.Exec(ctx, qSql, qArgs...); err != nil {
				return fmt.Errorf("error inserting question %d: %w", q.QuestionNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info().Int64("examID", examID).Str("code", exam.Code).Int("questions", len(questions)).Msg("Exam created from approved submission")
	return examID, nil
}

// GetByID retrieves an exam scoped to a tenant.
func (r *ExamRepository) GetByID(ctx context.Context, tenantID, id int64) (*models.Exam, error) {
	sql, args, err := r.sb.Select(examColumns...).
		From("exams").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get exam query: %w", err)
	}
	e, err := scanExam(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exam not found")
		}
		return nil, fmt.Errorf("error querying exam ID=%d: %w", id, err)
	}
	return e, nil
}

// GetByCode retrieves an exam by its student-facing code.
func (r *ExamRepository) GetByCode(ctx context.Context, tenantID int64, code string) (*models.Exam, error) {
	sql, args, err := r.sb.Select(examColumns...).
		From("exams").
		Where(squirrel.Eq{"code": code, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get exam by code query: %w", err)
	}
	e, err := scanExam(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no exam with this code")
		}
		return nil, fmt.Errorf("error querying exam code=%s: %w", code, err)
	}
	return e, nil
}

// GetBySubmissionID retrieves the exam created for a submission, if any.
func (r *ExamRepository) GetBySubmissionID(ctx context.Context, tenantID, submissionID int64) (*models.Exam, error) {
	sql, args, err := r.sb.Select(examColumns...).
		From("exams").
		Where(squirrel.Eq{"submission_id": submissionID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get exam by submission query: %w", err)
	}
	e, err := scanExam(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exam not found")
		}
		return nil, fmt.Errorf("error querying exam for submission ID=%d: %w", submissionID, err)
	}
	return e, nil
}

// MarkLive transitions approved->live. Repeat calls while live are no-ops
// and never overwrite started_at.
func (r *ExamRepository) MarkLive(ctx context.Context, tenantID, id int64, now time.Time) error {
	sql, args, err := r.sb.Update("exams").
		Set("status", models.ExamLive).
		Set("started_at", squirrel.Expr("COALESCE(started_at, ?)", now)).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		Where(squirrel.Eq{"status": []models.ExamStatus{models.ExamApproved, models.ExamLive}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build start exam query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error starting exam ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("exam has already ended")
	}
	return nil
}

// EndExam transitions an exam to ended and force-submits every in_progress
// attempt, all in one transaction so an interruption cannot leave a partial
// mix of states. No grading happens here.
func (r *ExamRepository) EndExam(ctx context.Context, tenantID, id int64, now time.Time) (int64, error) {
	var forced int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		endSql, endArgs, err := r.sb.Update("exams").
			SetMap(map[string]interface{}{
				"status":   models.ExamEnded,
				"ended_at": now,
			}).
			Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
			Where(squirrel.Eq{"status": []models.ExamStatus{models.ExamApproved, models.ExamLive}}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build end exam query: %w", err)
		}
		cmdTag, err := tx.Exec(ctx, endSql, endArgs...)
		if err != nil {
			return fmt.Errorf("error ending exam ID=%d: %w", id, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.NewConflictError("exam has already ended")
		}

		forceSql, forceArgs, err := r.sb.Update("attempts").
			SetMap(map[string]interface{}{
				"status":       models.AttemptSubmitted,
				"submitted_at": now,
			}).
			Where(squirrel.Eq{"exam_id": id, "status": models.AttemptInProgress}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build force submit query: %w", err)
		}
		forceTag, err := tx.Exec(ctx, forceSql, forceArgs...)
		if err != nil {
			return fmt.Errorf("error force-submitting attempts for exam ID=%d: %w", id, err)
		}
		forced = forceTag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info().Int64("examID", id).Int64("forcedAttempts", forced).Msg("Exam ended")
	return forced, nil
}

// SetAnswerKey stores the answer key and optionally overrides the exam-wide
// marks per question.
func (r *ExamRepository) SetAnswerKey(ctx context.Context, tenantID, id int64, key models.AnswerKey, marksPerQuestion *int) error {
	rawKey, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to encode answer key: %w", err)
	}

	update := r.sb.Update("exams").
		Set("answer_key", rawKey).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID})
	if marksPerQuestion != nil {
		update = update.Set("marks_per_question", *marksPerQuestion)
	}
	sql, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set answer key query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error setting answer key for exam ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("exam not found")
	}
	return nil
}

// ReleaseAnswerSlip stamps answer_slip_released_at once.
func (r *ExamRepository) ReleaseAnswerSlip(ctx context.Context, tenantID, id int64, now time.Time) error {
	sql, args, err := r.sb.Update("exams").
		Set("answer_slip_released_at", squirrel.Expr("COALESCE(answer_slip_released_at, ?)", now)).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build release answer slip query: %w", err)
	}
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error releasing answer slip for exam ID=%d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("exam not found")
	}
	return nil
}

// ListQuestions returns an exam's objective questions ordered by number.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID int64) ([]models.ObjectiveQuestion, error) {
	sql, args, err := r.sb.Select("id", "exam_id", "question_number", "text", "option_a", "option_b", "option_c", "option_d", "option_e").
		From("objective_questions").
		Where(squirrel.Eq{"exam_id": examID}).
		OrderBy("question_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list questions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.ObjectiveQuestion
	for rows.Next() {
		var q models.ObjectiveQuestion
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionNumber, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.OptionE); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return questions, nil
}
