package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// ScoreRepository maintains the per-student score ledger. Exam marks add to
// any continuous-assessment marks already there, capped at the maximum exam
// score, and the letter grade is resolved from the class's grade bands.
type ScoreRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewScoreRepository creates a new ScoreRepository
func NewScoreRepository(db *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// fallbackGrade is the fixed scale used when a class has no configured
// grade bands.
func fallbackGrade(marks int) string {
	switch {
	case marks >= 70:
		return "A"
	case marks >= 60:
		return "B"
	case marks >= 50:
		return "C"
	case marks >= 45:
		return "D"
	case marks >= 40:
		return "E"
	default:
		return "F"
	}
}

// lookupGrade resolves a grade from the class bands, falling back to the
// fixed scale when no band matches or none are configured.
func (r *ScoreRepository) lookupGrade(ctx context.Context, tenantID, classID int64, marks int) (string, error) {
	sql, args, err := r.sb.Select("grade").
		From("grade_bands").
		Where(squirrel.Eq{"tenant_id": tenantID, "class_id": classID}).
		Where(squirrel.LtOrEq{"min_marks": marks}).
		Where(squirrel.GtOrEq{"max_marks": marks}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build grade band query: %w", err)
	}

	var grade string
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&grade); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fallbackGrade(marks), nil
		}
		return "", fmt.Errorf("error querying grade bands: %w", err)
	}
	return grade, nil
}

// AddExamMarks upserts a score row keyed by student, subject, session and
// term. The exam marks add onto whatever is already recorded, the sum is
// capped, and the grade is recomputed from the capped total.
func (r *ScoreRepository) AddExamMarks(ctx context.Context, tenantID, studentID, classID, subjectID, sessionID, termID int64, examMarks int) error {
	sql, args, err := r.sb.Insert("scores").
		Columns("tenant_id", "student_id", "class_id", "subject_id", "session_id", "term_id", "exam_marks", "total_marks").
		Values(tenantID, studentID, classID, subjectID, sessionID, termID, examMarks,
			squirrel.Expr("LEAST(?, ?)", examMarks, models.MaxExamScore)).
		Suffix(`ON CONFLICT (tenant_id, student_id, subject_id, session_id, term_id) DO UPDATE
			SET exam_marks = EXCLUDED.exam_marks,
			    total_marks = LEAST(scores.ca_marks + EXCLUDED.exam_marks, ?)`, models.MaxExamScore).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert score query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error recording exam marks for student ID=%d: %w", studentID, err)
	}

	var total int
	totalSql, totalArgs, err := r.sb.Select("total_marks").
		From("scores").
		Where(squirrel.Eq{
			"tenant_id":  tenantID,
			"student_id": studentID,
			"subject_id": subjectID,
			"session_id": sessionID,
			"term_id":    termID,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build total query: %w", err)
	}
	if err := r.db.QueryRow(ctx, totalSql, totalArgs...).Scan(&total); err != nil {
		return fmt.Errorf("error reading recorded total: %w", err)
	}

	grade, err := r.lookupGrade(ctx, tenantID, classID, total)
	if err != nil {
		return err
	}
	gradeSql, gradeArgs, err := r.sb.Update("scores").
		Set("grade", grade).
		Where(squirrel.Eq{
			"tenant_id":  tenantID,
			"student_id": studentID,
			"subject_id": subjectID,
			"session_id": sessionID,
			"term_id":    termID,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build grade update query: %w", err)
	}
	if _, err := r.db.Exec(ctx, gradeSql, gradeArgs...); err != nil {
		return fmt.Errorf("error updating grade for student ID=%d: %w", studentID, err)
	}

	logger.Debug().Int64("studentID", studentID).Int("examMarks", examMarks).Int("total", total).Str("grade", grade).Msg("Score ledger updated")
	return nil
}
