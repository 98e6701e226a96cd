package services

import (
	"context"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
)

// MonitorService builds the invigilation dashboard: the exam's full class
// roster with each student's live attempt state, plus the tenant's recent
// audit trail.
type MonitorService struct {
	exams    examStore
	attempts attemptStore
	roster   rosterStore
	activity activityReader
}

// NewMonitorService creates a new MonitorService
func NewMonitorService(exams examStore, attempts attemptStore, roster rosterStore, activity activityReader) *MonitorService {
	return &MonitorService{
		exams:    exams,
		attempts: attempts,
		roster:   roster,
		activity: activity,
	}
}

// MonitorExam returns one row per rostered student. Students who never
// resolved the code appear as not_started; scores show only once an attempt
// is submitted.
func (s *MonitorService) MonitorExam(ctx context.Context, tenantID, examID int64) (*dto.MonitorResponse, error) {
	exam, err := s.exams.GetByID(ctx, tenantID, examID)
	if err != nil {
		return nil, err
	}
	students, err := s.roster.ListClassStudents(ctx, tenantID, exam.ClassID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	byStudent := make(map[int64]*models.Attempt, len(attempts))
	for i := range attempts {
		byStudent[attempts[i].StudentID] = &attempts[i]
	}

	rows := make([]dto.MonitorRow, 0, len(students))
	for _, st := range students {
		row := dto.MonitorRow{
			StudentID: st.StudentID,
			FullName:  st.FullName,
			Status:    models.AttemptNotStarted,
		}
		if a, ok := byStudent[st.StudentID]; ok {
			row.Status = a.Status
			row.StartedAt = a.StartedAt
			row.LastSeenAt = a.LastSeenAt
			row.SubmittedAt = a.SubmittedAt
			if a.Status == models.AttemptSubmitted {
				row.ObjectiveScore = a.ObjectiveScore
				row.TotalScore = a.TotalScore
			}
		}
		rows = append(rows, row)
	}

	return &dto.MonitorResponse{Exam: examSummary(exam), Students: rows}, nil
}

const maxActivityEntries = 200

// RecentActivity returns the newest audit entries for the admin oversight
// view.
func (s *MonitorService) RecentActivity(ctx context.Context, tenantID int64, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > maxActivityEntries {
		limit = 50
	}
	return s.activity.ListRecent(ctx, tenantID, limit)
}
