package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	SubmissionRepository *SubmissionRepository
	ExamRepository       *ExamRepository
	AttemptRepository    *AttemptRepository
	RosterRepository     *RosterRepository
	ScoreRepository      *ScoreRepository
	ActivityRepository   *ActivityRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	submissions := NewSubmissionRepository(db)
	return &Repositories{
		SubmissionRepository: submissions,
		ExamRepository:       NewExamRepository(db, submissions),
		AttemptRepository:    NewAttemptRepository(db),
		RosterRepository:     NewRosterRepository(db),
		ScoreRepository:      NewScoreRepository(db),
		ActivityRepository:   NewActivityRepository(db),
	}
}
