package services

import (
	"context"
	"errors"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/auth"
	"github.com/acadion/examcore/internal/pkg/dberrors"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// AttemptService runs a student's exam session from code resolution to
// submission. All mutating paths verify the continuation secret; the secret
// plaintext is returned exactly once, when minted.
type AttemptService struct {
	exams       examStore
	attempts    attemptStore
	submissions submissionStore
	roster      rosterStore
	scores      scoreStore
	graceWindow time.Duration
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(exams examStore, attempts attemptStore, submissions submissionStore, roster rosterStore, scores scoreStore, graceWindow time.Duration) *AttemptService {
	return &AttemptService{
		exams:       exams,
		attempts:    attempts,
		submissions: submissions,
		roster:      roster,
		scores:      scores,
		graceWindow: graceWindow,
	}
}

// verifySecret checks the continuation secret against the stored hash.
func verifySecret(attempt *models.Attempt, secret string) error {
	if !auth.CheckContinuationSecret(attempt.SecretHash, secret) {
		return apperrors.NewForbiddenError("wrong continuation secret")
	}
	return nil
}

// guardRoster confirms the student belongs to the exam's class.
func (s *AttemptService) guardRoster(ctx context.Context, tenantID, studentID int64, exam *models.Exam) error {
	student, err := s.roster.GetStudent(ctx, tenantID, studentID)
	if err != nil {
		return err
	}
	if student.ClassID != exam.ClassID {
		return apperrors.NewForbiddenError("exam is for a different class")
	}
	return nil
}

// ResolveCode maps an exam code onto this student's attempt. The first
// resolution creates the attempt and mints its continuation secret, which
// appears in this response and nowhere else ever again. Later resolutions
// report continuation_required so the client prompts for the saved secret.
func (s *AttemptService) ResolveCode(ctx context.Context, tenantID, studentID int64, req dto.ResolveCodeRequest) (*dto.ResolveCodeResponse, error) {
	exam, err := s.exams.GetByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if err := s.guardRoster(ctx, tenantID, studentID, exam); err != nil {
		return nil, err
	}
	if exam.Status == models.ExamApproved {
		return nil, apperrors.NewConflictError("exam has not started yet")
	}

	resp := &dto.ResolveCodeResponse{
		Exam:     examSummary(exam),
		ReadOnly: exam.Status == models.ExamEnded,
	}

	attempt, err := s.attempts.GetByExamAndStudent(ctx, exam.ID, studentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if exam.Status == models.ExamEnded {
			resp.AttemptStatus = models.AttemptNotStarted
			return resp, nil
		}

		plaintext, hash, err := auth.NewContinuationSecret()
		if err != nil {
			return nil, err
		}
		if _, err := s.attempts.Create(ctx, exam.ID, studentID, hash); err != nil {
			// A concurrent resolve won the creation race. Fall back to the
			// existing row; only the winner's secret is valid.
			if dberrors.IsUniqueViolation(err) {
				resp.AttemptStatus = models.AttemptNotStarted
				resp.ContinuationRequired = true
				return resp, nil
			}
			return nil, err
		}
		resp.AttemptStatus = models.AttemptNotStarted
		resp.ContinuationSecret = plaintext
		return resp, nil
	}

	resp.AttemptStatus = attempt.Status
	// A submitted attempt is read-only and needs no secret to view.
	if attempt.Status == models.AttemptSubmitted {
		return resp, nil
	}
	if req.ContinuationSecret != "" {
		if err := verifySecret(attempt, req.ContinuationSecret); err != nil {
			return nil, err
		}
	} else {
		resp.ContinuationRequired = true
	}
	return resp, nil
}

// beginExamState loads and checks everything shared by the begin path.
func (s *AttemptService) beginExamState(ctx context.Context, tenantID, studentID, examID int64, secret string) (*models.Exam, *models.Attempt, error) {
	exam, err := s.exams.GetByID(ctx, tenantID, examID)
	if err != nil {
		return nil, nil, err
	}
	if exam.Status == models.ExamApproved {
		return nil, nil, apperrors.NewConflictError("exam has not started yet")
	}
	if exam.Status == models.ExamEnded {
		return nil, nil, apperrors.NewConflictError("exam has ended")
	}
	if err := s.guardRoster(ctx, tenantID, studentID, exam); err != nil {
		return nil, nil, err
	}

	attempt, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return nil, nil, err
	}
	if err := verifySecret(attempt, secret); err != nil {
		return nil, nil, err
	}
	return exam, attempt, nil
}

// Begin starts a fresh attempt or resumes one after a disconnect. A
// submitted attempt still inside the grace window reopens; outside it the
// submission is final. The deadline never moves on resume.
func (s *AttemptService) Begin(ctx context.Context, tenantID, studentID, examID int64, req dto.BeginAttemptRequest) (*dto.BeginAttemptResponse, error) {
	exam, attempt, err := s.beginExamState(ctx, tenantID, studentID, examID, req.ContinuationSecret)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	switch attempt.Status {
	case models.AttemptSubmitted:
		if attempt.SubmittedAt == nil || now.Sub(*attempt.SubmittedAt) > s.graceWindow {
			return nil, apperrors.NewConflictError("attempt has already been submitted")
		}
		// A force-submitted attempt whose time ran out stays submitted; the
		// grace window only covers voluntary submissions with time left.
		if endsAt := attempt.EndsAt(exam.DurationMinutes); endsAt != nil && now.After(*endsAt) {
			return nil, apperrors.NewConflictError("attempt time has run out")
		}
		if err := s.attempts.ReopenAttempt(ctx, attempt.ID, now.Add(-s.graceWindow), now); err != nil {
			return nil, err
		}
		logger.Info().Int64("attemptID", attempt.ID).Msg("Attempt resumed inside grace window")
	case models.AttemptNotStarted:
		if err := s.attempts.StartAttempt(ctx, attempt.ID, now); err != nil {
			return nil, err
		}
	}

	// Re-read for the authoritative started_at, whichever caller fixed it.
	attempt, err = s.attempts.GetByID(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	endsAt := attempt.EndsAt(exam.DurationMinutes)
	if endsAt == nil {
		return nil, apperrors.NewConflictError("attempt has not begun")
	}
	if now.After(*endsAt) {
		return nil, apperrors.NewConflictError("attempt time has run out")
	}

	resp := &dto.BeginAttemptResponse{
		Exam:      examSummary(exam),
		StartedAt: *attempt.StartedAt,
		EndsAt:    *endsAt,
	}
	if exam.ExamType == models.ExamTypeObjective {
		questions, err := s.exams.ListQuestions(ctx, exam.ID)
		if err != nil {
			return nil, err
		}
		resp.Questions = questions
	} else {
		sub, err := s.submissions.GetByID(ctx, tenantID, exam.SubmissionID)
		if err != nil {
			return nil, err
		}
		resp.PaperFileRef = sub.PaperFileRef
	}

	saved, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	resp.SavedAnswers = saved
	return resp, nil
}

// Heartbeat records liveness for the invigilation dashboard.
func (s *AttemptService) Heartbeat(ctx context.Context, tenantID, studentID, examID int64, req dto.HeartbeatRequest) error {
	_, attempt, err := s.beginExamState(ctx, tenantID, studentID, examID, req.ContinuationSecret)
	if err != nil {
		return err
	}
	return s.attempts.Touch(ctx, attempt.ID, time.Now())
}

func toAttemptAnswers(attemptID int64, inputs []dto.AnswerInput) []models.AttemptAnswer {
	answers := make([]models.AttemptAnswer, 0, len(inputs))
	for _, in := range inputs {
		answers = append(answers, models.AttemptAnswer{
			AttemptID:       attemptID,
			QuestionNumber:  in.QuestionNumber,
			ObjectiveChoice: in.ObjectiveChoice,
			FreeText:        in.FreeText,
		})
	}
	return answers
}

// SaveAnswers upserts a batch of answers, last write per question winning.
// Saves past the deadline are rejected; the sweeper will submit what is
// already there.
func (s *AttemptService) SaveAnswers(ctx context.Context, tenantID, studentID, examID int64, req dto.SaveAnswersRequest) error {
	exam, attempt, err := s.beginExamState(ctx, tenantID, studentID, examID, req.ContinuationSecret)
	if err != nil {
		return err
	}
	now := time.Now()
	if endsAt := attempt.EndsAt(exam.DurationMinutes); endsAt != nil && now.After(*endsAt) {
		return apperrors.NewConflictError("attempt time has run out")
	}
	return s.attempts.UpsertAnswers(ctx, attempt.ID, toAttemptAnswers(attempt.ID, req.Answers), now)
}

// Submit finalizes the attempt, merging any last answer batch first. For an
// objective exam with its key already set the score is computed inside the
// same transaction and pushed into the score ledger. A second submit is
// rejected; the recorded submission stands.
func (s *AttemptService) Submit(ctx context.Context, tenantID, studentID, examID int64, req dto.SubmitAttemptRequest) (*dto.SubmitAttemptResponse, error) {
	exam, err := s.exams.GetByID(ctx, tenantID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status == models.ExamApproved {
		return nil, apperrors.NewConflictError("exam has not started yet")
	}
	if exam.Status == models.ExamEnded {
		return nil, apperrors.NewConflictError("exam has ended")
	}
	if err := s.guardRoster(ctx, tenantID, studentID, exam); err != nil {
		return nil, err
	}
	attempt, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if err := verifySecret(attempt, req.ContinuationSecret); err != nil {
		return nil, err
	}

	now := time.Now()
	answers := toAttemptAnswers(attempt.ID, req.Answers)
	submitted, err := s.attempts.SubmitAttempt(ctx, attempt.ID, answers, now, objectiveScoreFn(exam))
	if err != nil {
		return nil, err
	}

	if submitted.TotalScore != nil {
		err := s.scores.AddExamMarks(ctx, tenantID, studentID, exam.ClassID, exam.SubjectID, exam.SessionID, exam.TermID, *submitted.TotalScore)
		if err != nil {
			logger.Error().Err(err).Int64("attemptID", attempt.ID).Msg("Failed to record score in ledger")
		}
	}

	return &dto.SubmitAttemptResponse{
		Status:         submitted.Status,
		SubmittedAt:    *submitted.SubmittedAt,
		ObjectiveScore: submitted.ObjectiveScore,
	}, nil
}

// ReissueSecret mints a replacement continuation secret for a student who
// lost theirs. Admin only; the new plaintext is shown exactly once and the
// old secret dies with the update.
func (s *AttemptService) ReissueSecret(ctx context.Context, tenantID, attemptID int64) (*dto.ReissueSecretResponse, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	// Tenancy check rides on the exam row.
	if _, err := s.exams.GetByID(ctx, tenantID, attempt.ExamID); err != nil {
		return nil, err
	}
	if attempt.Status == models.AttemptSubmitted {
		return nil, apperrors.NewConflictError("attempt has already been submitted")
	}

	plaintext, hash, err := auth.NewContinuationSecret()
	if err != nil {
		return nil, err
	}
	if err := s.attempts.UpdateSecretHash(ctx, attemptID, hash); err != nil {
		return nil, err
	}
	logger.Info().Int64("attemptID", attemptID).Msg("Continuation secret reissued")
	return &dto.ReissueSecretResponse{AttemptID: attemptID, ContinuationSecret: plaintext}, nil
}
