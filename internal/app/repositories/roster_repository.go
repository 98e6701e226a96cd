package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/pkg/apperrors"
)

// RosterRepository reads the externally owned student and assignment tables.
// Everything here is read-only.
type RosterRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewRosterRepository creates a new RosterRepository
func NewRosterRepository(db *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetStudent retrieves one roster row scoped to a tenant.
func (r *RosterRepository) GetStudent(ctx context.Context, tenantID, studentID int64) (*models.RosterStudent, error) {
	sql, args, err := r.sb.Select("student_id", "full_name", "class_id").
		From("students").
		Where(squirrel.Eq{"student_id": studentID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	var s models.RosterStudent
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.StudentID, &s.FullName, &s.ClassID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("student not found")
		}
		return nil, fmt.Errorf("error querying student ID=%d: %w", studentID, err)
	}
	return &s, nil
}

// ListClassStudents returns the roster of a class ordered by name.
func (r *RosterRepository) ListClassStudents(ctx context.Context, tenantID, classID int64) ([]models.RosterStudent, error) {
	sql, args, err := r.sb.Select("student_id", "full_name", "class_id").
		From("students").
		Where(squirrel.Eq{"class_id": classID, "tenant_id": tenantID}).
		OrderBy("full_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query class roster: %w", err)
	}
	defer rows.Close()

	var students []models.RosterStudent
	for rows.Next() {
		var s models.RosterStudent
		if err := rows.Scan(&s.StudentID, &s.FullName, &s.ClassID); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}
	return students, nil
}

// TeacherAssigned reports whether a teacher is assigned to a class/subject
// pair in this tenant.
func (r *RosterRepository) TeacherAssigned(ctx context.Context, tenantID, teacherID, classID, subjectID int64) (bool, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("teacher_assignments").
		Where(squirrel.Eq{
			"tenant_id":  tenantID,
			"teacher_id": teacherID,
			"class_id":   classID,
			"subject_id": subjectID,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build assignment query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking teacher assignment: %w", err)
	}
	return count > 0, nil
}
