package dto

// CreateSubmissionRequest carries the multipart form fields of a teacher's
// exam package. The paper file and, for objective exams, the .txt source
// file travel as uploads beside these fields.
type CreateSubmissionRequest struct {
	ClassID          int64  `form:"classId" binding:"required"`
	SubjectID        int64  `form:"subjectId" binding:"required"`
	SessionID        int64  `form:"sessionId" binding:"required"`
	TermID           int64  `form:"termId" binding:"required"`
	ExamType         string `form:"examType" binding:"required"`
	DurationMinutes  int    `form:"durationMinutes" binding:"required,gt=0"`
	QuestionCount    *int   `form:"questionCount"`
	MarksPerQuestion *int   `form:"marksPerQuestion"`
}

// RejectSubmissionRequest carries the mandatory rejection reason.
type RejectSubmissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ApproveSubmissionResponse reports the exam created by an approval.
type ApproveSubmissionResponse struct {
	ExamID        int64  `json:"examId"`
	Code          string `json:"code"`
	QuestionCount int    `json:"questionCount,omitempty"`
}
