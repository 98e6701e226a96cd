package models

import "time"

// Exam is a live, code-addressable exam created exactly once when its
// submission is approved.
type Exam struct {
	ID                   int64      `json:"id" db:"id"`
	TenantID             int64      `json:"tenantId" db:"tenant_id"`
	SubmissionID         int64      `json:"submissionId" db:"submission_id"`
	Code                 string     `json:"code" db:"code"`
	ClassID              int64      `json:"classId" db:"class_id"`
	SubjectID            int64      `json:"subjectId" db:"subject_id"`
	SessionID            int64      `json:"sessionId" db:"session_id"`
	TermID               int64      `json:"termId" db:"term_id"`
	ExamType             ExamType   `json:"examType" db:"exam_type"`
	DurationMinutes      int        `json:"durationMinutes" db:"duration_minutes"`
	QuestionCount        *int       `json:"questionCount,omitempty" db:"question_count"`
	MarksPerQuestion     *int       `json:"marksPerQuestion,omitempty" db:"marks_per_question"`
	Status               ExamStatus `json:"status" db:"status"`
	StartedAt            *time.Time `json:"startedAt,omitempty" db:"started_at"`
	EndedAt              *time.Time `json:"endedAt,omitempty" db:"ended_at"`
	AnswerKey            AnswerKey  `json:"answerKey,omitempty" db:"answer_key"`
	AnswerSlipReleasedAt *time.Time `json:"answerSlipReleasedAt,omitempty" db:"answer_slip_released_at"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
}

// DefaultMark is the mark a correct answer earns when its key entry carries
// no per-question mark: the exam-wide marks per question, minimum 1.
func (e *Exam) DefaultMark() int {
	if e.MarksPerQuestion != nil && *e.MarksPerQuestion > 0 {
		return *e.MarksPerQuestion
	}
	return 1
}

// ObjectiveQuestion is one parsed question of an objective exam, created in
// bulk at approval time and immutable afterwards.
type ObjectiveQuestion struct {
	ID             int64   `json:"id" db:"id"`
	ExamID         int64   `json:"examId" db:"exam_id"`
	QuestionNumber int     `json:"questionNumber" db:"question_number"`
	Text           string  `json:"text" db:"text"`
	OptionA        *string `json:"optionA,omitempty" db:"option_a"`
	OptionB        *string `json:"optionB,omitempty" db:"option_b"`
	OptionC        *string `json:"optionC,omitempty" db:"option_c"`
	OptionD        *string `json:"optionD,omitempty" db:"option_d"`
	OptionE        *string `json:"optionE,omitempty" db:"option_e"`
}
