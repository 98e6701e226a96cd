package models

import "time"

// Attempt is one student's session against one exam. Exactly one exists per
// (exam, student) pair; it is created lazily on first code resolution.
type Attempt struct {
	ID             int64         `json:"id" db:"id"`
	ExamID         int64         `json:"examId" db:"exam_id"`
	StudentID      int64         `json:"studentId" db:"student_id"`
	SecretHash     string        `json:"-" db:"secret_hash"`
	Status         AttemptStatus `json:"status" db:"status"`
	StartedAt      *time.Time    `json:"startedAt,omitempty" db:"started_at"`
	LastSeenAt     *time.Time    `json:"lastSeenAt,omitempty" db:"last_seen_at"`
	SubmittedAt    *time.Time    `json:"submittedAt,omitempty" db:"submitted_at"`
	ObjectiveScore *int          `json:"objectiveScore,omitempty" db:"objective_score"`
	TotalScore     *int          `json:"totalScore,omitempty" db:"total_score"`
	MarkedBy       *int64        `json:"markedBy,omitempty" db:"marked_by"`
	MarkedAt       *time.Time    `json:"markedAt,omitempty" db:"marked_at"`
}

// EndsAt returns the advisory deadline for an attempt that has begun.
func (a *Attempt) EndsAt(durationMinutes int) *time.Time {
	if a.StartedAt == nil {
		return nil
	}
	t := a.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
	return &t
}

// AttemptAnswer is one recorded answer, upserted until submission. Mark is
// set only by a teacher for content that is not auto-graded.
type AttemptAnswer struct {
	AttemptID       int64   `json:"attemptId" db:"attempt_id"`
	QuestionNumber  int     `json:"questionNumber" db:"question_number"`
	ObjectiveChoice *string `json:"objectiveChoice,omitempty" db:"objective_choice"`
	FreeText        *string `json:"freeText,omitempty" db:"free_text"`
	Mark            *int    `json:"mark,omitempty" db:"mark"`
}
