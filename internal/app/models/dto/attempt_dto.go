package dto

import (
	"time"

	"github.com/acadion/examcore/internal/app/models"
)

// ExamSummary is the student-facing view of an exam.
type ExamSummary struct {
	ExamID          int64             `json:"examId"`
	Code            string            `json:"code"`
	ClassID         int64             `json:"classId"`
	SubjectID       int64             `json:"subjectId"`
	SessionID       int64             `json:"sessionId"`
	TermID          int64             `json:"termId"`
	ExamType        models.ExamType   `json:"examType"`
	DurationMinutes int               `json:"durationMinutes"`
	QuestionCount   *int              `json:"questionCount,omitempty"`
	Status          models.ExamStatus `json:"status"`
}

// ResolveCodeRequest resolves an exam code into an attempt. The secret is
// absent on the very first call, which mints it.
type ResolveCodeRequest struct {
	Code               string `json:"code" binding:"required"`
	ContinuationSecret string `json:"continuationSecret"`
}

// ResolveCodeResponse returns the exam summary plus either a freshly minted
// continuation secret (shown exactly once) or a continuation_required flag.
type ResolveCodeResponse struct {
	Exam                 ExamSummary          `json:"exam"`
	AttemptStatus        models.AttemptStatus `json:"attemptStatus"`
	ContinuationRequired bool                 `json:"continuationRequired"`
	ContinuationSecret   string               `json:"continuationSecret,omitempty"`
	ReadOnly             bool                 `json:"readOnly"`
}

// BeginAttemptRequest starts or resumes an attempt.
type BeginAttemptRequest struct {
	ContinuationSecret string `json:"continuationSecret" binding:"required"`
}

// BeginAttemptResponse carries everything a client needs to (re)render the
// exam: the deadline, the question set or paper reference, and any answers
// already saved.
type BeginAttemptResponse struct {
	Exam         ExamSummary                `json:"exam"`
	StartedAt    time.Time                  `json:"startedAt"`
	EndsAt       time.Time                  `json:"endsAt"`
	Questions    []models.ObjectiveQuestion `json:"questions,omitempty"`
	PaperFileRef string                     `json:"paperFileRef,omitempty"`
	SavedAnswers []models.AttemptAnswer     `json:"savedAnswers,omitempty"`
}

// HeartbeatRequest updates liveness only.
type HeartbeatRequest struct {
	ContinuationSecret string `json:"continuationSecret" binding:"required"`
}

// AnswerInput is one answer in a save or submit batch.
type AnswerInput struct {
	QuestionNumber  int     `json:"questionNumber" binding:"required,gt=0"`
	ObjectiveChoice *string `json:"objectiveChoice,omitempty"`
	FreeText        *string `json:"freeText,omitempty"`
}

// SaveAnswersRequest upserts a batch of answers, last write wins per
// question.
type SaveAnswersRequest struct {
	ContinuationSecret string        `json:"continuationSecret" binding:"required"`
	Answers            []AnswerInput `json:"answers" binding:"required"`
}

// SubmitAttemptRequest finalizes the attempt with an optional last batch.
type SubmitAttemptRequest struct {
	ContinuationSecret string        `json:"continuationSecret" binding:"required"`
	Answers            []AnswerInput `json:"answers"`
}

// SubmitAttemptResponse reports the final state and, for auto-graded
// objective exams, the score.
type SubmitAttemptResponse struct {
	Status         models.AttemptStatus `json:"status"`
	SubmittedAt    time.Time            `json:"submittedAt"`
	ObjectiveScore *int                 `json:"objectiveScore,omitempty"`
}

// ReissueSecretResponse returns a newly minted continuation secret, shown
// exactly once. The previous secret stops working immediately.
type ReissueSecretResponse struct {
	AttemptID          int64  `json:"attemptId"`
	ContinuationSecret string `json:"continuationSecret"`
}
