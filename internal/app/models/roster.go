package models

import "time"

// RosterStudent is a class-membership row read from the externally owned
// roster tables. This subsystem never mutates it.
type RosterStudent struct {
	StudentID int64  `json:"studentId" db:"student_id"`
	FullName  string `json:"fullName" db:"full_name"`
	ClassID   int64  `json:"classId" db:"class_id"`
}

// GradeBand is one row of an externally configured grading scale: a grade
// label for a closed mark range within a class.
type GradeBand struct {
	ClassID  int64  `db:"class_id"`
	MinMarks int    `db:"min_marks"`
	MaxMarks int    `db:"max_marks"`
	Grade    string `db:"grade"`
}

// ActivityEntry is one best-effort audit record. Writing it must never abort
// the operation being recorded.
type ActivityEntry struct {
	TenantID  int64     `db:"tenant_id"`
	ActorID   int64     `db:"actor_id"`
	Action    string    `db:"action"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
