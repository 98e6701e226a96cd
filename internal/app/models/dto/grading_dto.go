package dto

import "github.com/acadion/examcore/internal/app/models"

// SetAnswerKeyRequest stores the answer key of an objective exam. Entries
// accept both the bare `"A"` shape and `{"answer":"A","mark":2}`; see
// models.KeyEntry. MarksPerQuestion optionally overrides the exam-wide mark.
type SetAnswerKeyRequest struct {
	Answers          models.AnswerKey `json:"answers" binding:"required"`
	MarksPerQuestion *int             `json:"marksPerQuestion"`
}

// SetAnswerKeyResponse reports how many already-submitted attempts were
// re-graded by the key change.
type SetAnswerKeyResponse struct {
	ExamID        int64 `json:"examId"`
	RegradedCount int   `json:"regradedCount"`
}

// QuestionMark is one manually awarded mark.
type QuestionMark struct {
	QuestionNumber int `json:"questionNumber" binding:"required,gt=0"`
	Mark           int `json:"mark" binding:"gte=0"`
}

// MarkAttemptRequest carries per-question marks for theory and fill-blank
// attempts.
type MarkAttemptRequest struct {
	Marks []QuestionMark `json:"marks" binding:"required"`
}

// MarkAttemptResponse reports the resulting total.
type MarkAttemptResponse struct {
	AttemptID  int64 `json:"attemptId"`
	TotalScore int   `json:"totalScore"`
}
