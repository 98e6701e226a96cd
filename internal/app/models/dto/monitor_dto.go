package dto

import (
	"time"

	"github.com/acadion/examcore/internal/app/models"
)

// MonitorRow is one student's live status on the invigilation dashboard.
// Students with no attempt row yet appear as not_started.
type MonitorRow struct {
	StudentID      int64                `json:"studentId"`
	FullName       string               `json:"fullName"`
	Status         models.AttemptStatus `json:"status"`
	StartedAt      *time.Time           `json:"startedAt,omitempty"`
	LastSeenAt     *time.Time           `json:"lastSeenAt,omitempty"`
	SubmittedAt    *time.Time           `json:"submittedAt,omitempty"`
	ObjectiveScore *int                 `json:"objectiveScore,omitempty"`
	TotalScore     *int                 `json:"totalScore,omitempty"`
}

// MonitorResponse aggregates an exam's roster for admin oversight.
type MonitorResponse struct {
	Exam     ExamSummary  `json:"exam"`
	Students []MonitorRow `json:"students"`
}
