package models

// ExamType defines the kind of paper an exam runs on.
type ExamType string

const (
	ExamTypeObjective ExamType = "objective"
	ExamTypeTheory    ExamType = "theory"
	ExamTypeFillBlank ExamType = "fill_blank"
)

// Valid reports whether t is one of the known exam types.
func (t ExamType) Valid() bool {
	switch t {
	case ExamTypeObjective, ExamTypeTheory, ExamTypeFillBlank:
		return true
	}
	return false
}

// SubmissionStatus tracks a teacher-submitted exam package through review.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// ExamStatus only ever advances: approved -> live -> ended.
type ExamStatus string

const (
	ExamApproved ExamStatus = "approved"
	ExamLive     ExamStatus = "live"
	ExamEnded    ExamStatus = "ended"
)

// AttemptStatus tracks a student's progress through an exam session.
// Monotonic except for the short post-submit grace rollback.
type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// MaxExamScore caps every computed score.
const MaxExamScore = 100
