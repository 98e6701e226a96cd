package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/dberrors"
	"github.com/acadion/examcore/internal/pkg/logger"
	"github.com/acadion/examcore/internal/pkg/papertext"
)

// Alphabet for exam codes. Ambiguous characters (0/O, 1/I) are left out
// since students type these by hand.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// RegistryService turns approved submissions into live, code-addressable
// exams and drives the exam lifecycle from there.
type RegistryService struct {
	submissions  submissionStore
	exams        examStore
	activity     activityRecorder
	storage      paperStorage
	codeAttempts int
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(submissions submissionStore, exams examStore, activity activityRecorder, storage paperStorage, codeAttempts int) *RegistryService {
	return &RegistryService{
		submissions:  submissions,
		exams:        exams,
		activity:     activity,
		storage:      storage,
		codeAttempts: codeAttempts,
	}
}

// newExamCode draws a random code from the unambiguous alphabet.
func newExamCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate exam code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// Approve converts a pending submission into an exam. For objective papers
// the source file is parsed into questions and the mark arithmetic is
// checked against the score cap before anything is written. The exam code
// is drawn at random and the insert retried on a collision; uniqueness is
// enforced by the database, not by a read-then-write check.
func (s *RegistryService) Approve(ctx context.Context, tenantID, submissionID, reviewerID int64) (*dto.ApproveSubmissionResponse, error) {
	sub, err := s.submissions.GetByID(ctx, tenantID, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubmissionPending {
		return nil, apperrors.NewConflictError("submission is not pending review")
	}

	var questions []models.ObjectiveQuestion
	questionCount := sub.QuestionCount
	if sub.ExamType == models.ExamTypeObjective {
		if sub.SourceFileRef == nil {
			return nil, apperrors.NewPreconditionError("objective submission has no source file")
		}
		if !strings.EqualFold(filepath.Ext(*sub.SourceFileRef), ".txt") {
			return nil, apperrors.NewPreconditionError("objective source file is not a .txt file")
		}
		if sub.MarksPerQuestion == nil || *sub.MarksPerQuestion <= 0 {
			return nil, apperrors.NewPreconditionError("objective submission has no positive marks per question")
		}
		source, err := s.storage.ReadFile(*sub.SourceFileRef)
		if err != nil {
			return nil, err
		}
		parsed := papertext.Parse(string(source))
		if len(parsed) == 0 {
			return nil, apperrors.NewValidationError("source file contains no parsable questions")
		}
		if sub.QuestionCount != nil && *sub.QuestionCount != len(parsed) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("declared question count %d does not match %d parsed questions", *sub.QuestionCount, len(parsed)))
		}
		mark := *sub.MarksPerQuestion
		if len(parsed)*mark > models.MaxExamScore {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%d questions at %d marks each exceed the %d mark cap", len(parsed), mark, models.MaxExamScore))
		}

		questions = make([]models.ObjectiveQuestion, 0, len(parsed))
		for _, q := range parsed {
			oq := models.ObjectiveQuestion{QuestionNumber: q.Number, Text: q.Text}
			for letter, text := range q.Options {
				t := text
				switch letter {
				case "A":
					oq.OptionA = &t
				case "B":
					oq.OptionB = &t
				case "C":
					oq.OptionC = &t
				case "D":
					oq.OptionD = &t
				case "E":
					oq.OptionE = &t
				}
			}
			questions = append(questions, oq)
		}
		n := len(parsed)
		questionCount = &n
	}

	now := time.Now()
	exam := &models.Exam{
		TenantID:         tenantID,
		SubmissionID:     sub.ID,
		ClassID:          sub.ClassID,
		SubjectID:        sub.SubjectID,
		SessionID:        sub.SessionID,
		TermID:           sub.TermID,
		ExamType:         sub.ExamType,
		DurationMinutes:  sub.DurationMinutes,
		QuestionCount:    questionCount,
		MarksPerQuestion: sub.MarksPerQuestion,
	}

	var examID int64
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code, err := newExamCode()
		if err != nil {
			return nil, err
		}
		exam.Code = code

		examID, err = s.exams.ApproveAndCreateExam(ctx, exam, questions, reviewerID, now)
		if err == nil {
			break
		}
		if dberrors.IsUniqueViolation(err) {
			logger.Debug().Str("code", code).Msg("Exam code collision, redrawing")
			continue
		}
		return nil, err
	}
	if examID == 0 {
		return nil, fmt.Errorf("failed to allocate a unique exam code after %d attempts", s.codeAttempts)
	}

	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   reviewerID,
		Action:    "submission.approved",
		Detail:    fmt.Sprintf("exam %s created", exam.Code),
		CreatedAt: now,
	})

	resp := &dto.ApproveSubmissionResponse{ExamID: examID, Code: exam.Code}
	if questionCount != nil {
		resp.QuestionCount = *questionCount
	}
	return resp, nil
}

// Get returns one exam.
func (s *RegistryService) Get(ctx context.Context, tenantID, id int64) (*models.Exam, error) {
	return s.exams.GetByID(ctx, tenantID, id)
}

// Start makes an exam live. Starting an already-live exam is a no-op and
// keeps the original start time.
func (s *RegistryService) Start(ctx context.Context, tenantID, id, actorID int64) error {
	if err := s.exams.MarkLive(ctx, tenantID, id, time.Now()); err != nil {
		return err
	}
	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    "exam.started",
		Detail:    fmt.Sprintf("exam %d is live", id),
		CreatedAt: time.Now(),
	})
	return nil
}

// End closes an exam and force-submits every running attempt. No grading
// happens here; scores come from the answer key or manual marking later.
func (s *RegistryService) End(ctx context.Context, tenantID, id, actorID int64) (int64, error) {
	forced, err := s.exams.EndExam(ctx, tenantID, id, time.Now())
	if err != nil {
		return 0, err
	}
	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    "exam.ended",
		Detail:    fmt.Sprintf("exam %d ended, %d attempts force-submitted", id, forced),
		CreatedAt: time.Now(),
	})
	return forced, nil
}

// ReleaseAnswerSlip makes per-student results visible. Only ended exams
// release, and releasing twice keeps the first timestamp.
func (s *RegistryService) ReleaseAnswerSlip(ctx context.Context, tenantID, id, actorID int64) error {
	exam, err := s.exams.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if exam.Status != models.ExamEnded {
		return apperrors.NewConflictError("answer slips release only after the exam ends")
	}

	if err := s.exams.ReleaseAnswerSlip(ctx, tenantID, id, time.Now()); err != nil {
		return err
	}
	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    "exam.slips_released",
		Detail:    fmt.Sprintf("answer slips released for exam %d", id),
		CreatedAt: time.Now(),
	})
	return nil
}
