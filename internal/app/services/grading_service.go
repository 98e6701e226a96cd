package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// GradingService computes objective scores, applies teacher marks and keeps
// the score ledger in step with both.
type GradingService struct {
	exams    examStore
	attempts attemptStore
	scores   scoreStore
	activity activityRecorder
}

// NewGradingService creates a new GradingService
func NewGradingService(exams examStore, attempts attemptStore, scores scoreStore, activity activityRecorder) *GradingService {
	return &GradingService{
		exams:    exams,
		attempts: attempts,
		scores:   scores,
		activity: activity,
	}
}

// ComputeObjectiveScore grades an answer set against a key. Choice
// comparison ignores case, a correct answer earns its key entry's mark or
// the exam-wide default, and the total is capped at the maximum score.
// Questions absent from the key earn nothing.
func ComputeObjectiveScore(key models.AnswerKey, answers []models.AttemptAnswer, defaultMark int) int {
	if defaultMark <= 0 {
		defaultMark = 1
	}
	total := 0
	for _, ans := range answers {
		if ans.ObjectiveChoice == nil {
			continue
		}
		entry, ok := key[ans.QuestionNumber]
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(*ans.ObjectiveChoice), entry.Choice) {
			continue
		}
		if entry.Mark > 0 {
			total += entry.Mark
		} else {
			total += defaultMark
		}
	}
	if total > models.MaxExamScore {
		total = models.MaxExamScore
	}
	return total
}

// objectiveScoreFn builds the score callback for an exam, or nil semantics
// when no key is set yet: attempts submit unscored and pick up a score when
// the key arrives.
func objectiveScoreFn(exam *models.Exam) func(answers []models.AttemptAnswer) *int {
	return func(answers []models.AttemptAnswer) *int {
		if exam.ExamType != models.ExamTypeObjective || exam.AnswerKey == nil {
			return nil
		}
		score := ComputeObjectiveScore(exam.AnswerKey, answers, exam.DefaultMark())
		return &score
	}
}

// SetAnswerKey validates and stores an objective exam's key, then re-grades
// every already-submitted attempt and refreshes the score ledger for each.
func (s *GradingService) SetAnswerKey(ctx context.Context, tenantID, examID, actorID int64, req dto.SetAnswerKeyRequest) (*dto.SetAnswerKeyResponse, error) {
	exam, err := s.exams.GetByID(ctx, tenantID, examID)
	if err != nil {
		return nil, err
	}
	if exam.ExamType != models.ExamTypeObjective {
		return nil, apperrors.NewConflictError("answer keys apply only to objective exams")
	}
	if len(req.Answers) == 0 {
		return nil, apperrors.NewValidationError("answer key is empty")
	}
	if req.MarksPerQuestion != nil && *req.MarksPerQuestion <= 0 {
		return nil, apperrors.NewValidationError("marks per question must be positive")
	}

	defaultMark := exam.DefaultMark()
	if req.MarksPerQuestion != nil {
		defaultMark = *req.MarksPerQuestion
	}
	maxTotal := 0
	for qn, entry := range req.Answers {
		if qn <= 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid question number %d", qn))
		}
		if len(entry.Choice) != 1 || entry.Choice[0] < 'A' || entry.Choice[0] > 'E' {
			return nil, apperrors.NewValidationError(fmt.Sprintf("question %d: answer must be a letter A-E", qn))
		}
		if entry.Mark < 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("question %d: mark cannot be negative", qn))
		}
		if entry.Mark > 0 {
			maxTotal += entry.Mark
		} else {
			maxTotal += defaultMark
		}
	}
	if maxTotal > models.MaxExamScore {
		return nil, apperrors.NewPreconditionError(fmt.Sprintf("key totals %d marks, above the %d cap", maxTotal, models.MaxExamScore))
	}

	if err := s.exams.SetAnswerKey(ctx, tenantID, examID, req.Answers, req.MarksPerQuestion); err != nil {
		return nil, err
	}
	exam.AnswerKey = req.Answers
	if req.MarksPerQuestion != nil {
		exam.MarksPerQuestion = req.MarksPerQuestion
	}

	regraded, err := s.attempts.RegradeSubmitted(ctx, examID, objectiveScoreFn(exam))
	if err != nil {
		return nil, err
	}
	if err := s.refreshLedger(ctx, exam); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    "exam.key_set",
		Detail:    fmt.Sprintf("answer key set for exam %d, %d attempts regraded", examID, regraded),
		CreatedAt: time.Now(),
	})
	return &dto.SetAnswerKeyResponse{ExamID: examID, RegradedCount: regraded}, nil
}

// refreshLedger rewrites the score ledger rows for every submitted attempt
// of an exam after a regrade.
func (s *GradingService) refreshLedger(ctx context.Context, exam *models.Exam) error {
	attempts, err := s.attempts.ListByExam(ctx, exam.ID)
	if err != nil {
		return err
	}
	for _, a := range attempts {
		if a.Status != models.AttemptSubmitted || a.TotalScore == nil {
			continue
		}
		err := s.scores.AddExamMarks(ctx, exam.TenantID, a.StudentID, exam.ClassID, exam.SubjectID, exam.SessionID, exam.TermID, *a.TotalScore)
		if err != nil {
			logger.Error().Err(err).Int64("attemptID", a.ID).Msg("Failed to update score ledger")
			return err
		}
	}
	return nil
}

// MarkAttempt records teacher marks on a submitted theory or fill-blank
// attempt. The total is the sum of per-question marks, capped, and the
// ledger row is updated with it.
func (s *GradingService) MarkAttempt(ctx context.Context, tenantID, attemptID, markerID int64, req dto.MarkAttemptRequest) (*dto.MarkAttemptResponse, error) {
	if len(req.Marks) == 0 {
		return nil, apperrors.NewValidationError("no marks supplied")
	}

	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, tenantID, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	if exam.ExamType == models.ExamTypeObjective {
		return nil, apperrors.NewConflictError("objective attempts are graded from the answer key")
	}

	marks := make(map[int]int, len(req.Marks))
	total := 0
	for _, m := range req.Marks {
		if _, dup := marks[m.QuestionNumber]; dup {
			return nil, apperrors.NewValidationError(fmt.Sprintf("question %d marked twice", m.QuestionNumber))
		}
		marks[m.QuestionNumber] = m.Mark
		total += m.Mark
	}
	if total > models.MaxExamScore {
		total = models.MaxExamScore
	}

	if err := s.attempts.ApplyManualMarks(ctx, attemptID, marks, total, markerID, time.Now()); err != nil {
		return nil, err
	}
	err = s.scores.AddExamMarks(ctx, tenantID, attempt.StudentID, exam.ClassID, exam.SubjectID, exam.SessionID, exam.TermID, total)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   markerID,
		Action:    "attempt.marked",
		Detail:    fmt.Sprintf("attempt %d marked, total %d", attemptID, total),
		CreatedAt: time.Now(),
	})
	return &dto.MarkAttemptResponse{AttemptID: attemptID, TotalScore: total}, nil
}
