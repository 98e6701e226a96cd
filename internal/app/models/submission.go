package models

import "time"

// ExamSubmission is a teacher-submitted exam package awaiting admin review.
// Immutable once approved; deletable only while rejected.
type ExamSubmission struct {
	ID               int64            `json:"id" db:"id"`
	TenantID         int64            `json:"tenantId" db:"tenant_id"`
	TeacherID        int64            `json:"teacherId" db:"teacher_id"`
	ClassID          int64            `json:"classId" db:"class_id"`
	SubjectID        int64            `json:"subjectId" db:"subject_id"`
	SessionID        int64            `json:"sessionId" db:"session_id"`
	TermID           int64            `json:"termId" db:"term_id"`
	ExamType         ExamType         `json:"examType" db:"exam_type"`
	DurationMinutes  int              `json:"durationMinutes" db:"duration_minutes"`
	QuestionCount    *int             `json:"questionCount,omitempty" db:"question_count"`
	MarksPerQuestion *int             `json:"marksPerQuestion,omitempty" db:"marks_per_question"`
	PaperFileRef     string           `json:"paperFileRef" db:"paper_file_ref"`
	SourceFileRef    *string          `json:"sourceFileRef,omitempty" db:"source_file_ref"`
	Status           SubmissionStatus `json:"status" db:"status"`
	RejectionReason  *string          `json:"rejectionReason,omitempty" db:"rejection_reason"`
	ReviewedBy       *int64           `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewedAt       *time.Time       `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
}
