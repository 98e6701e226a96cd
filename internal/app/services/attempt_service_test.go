package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/auth"
)

type attemptEnv struct {
	svc      *AttemptService
	exams    *fakeExamStore
	attempts *fakeAttemptStore
	subs     *fakeSubmissionStore
	roster   *fakeRosterStore
	scores   *fakeScoreStore
}

func newAttemptEnv(graceWindow time.Duration) *attemptEnv {
	exams := newFakeExamStore()
	attempts := newFakeAttemptStore()
	subs := newFakeSubmissionStore()
	roster := newFakeRosterStore()
	scores := &fakeScoreStore{}
	roster.addStudent(100, 10, "Ada Obi")
	return &attemptEnv{
		svc:      NewAttemptService(exams, attempts, subs, roster, scores, graceWindow),
		exams:    exams,
		attempts: attempts,
		subs:     subs,
		roster:   roster,
		scores:   scores,
	}
}

// addObjectiveExam registers a live objective exam with a two-question key
// worth 10 marks each.
func (e *attemptEnv) addObjectiveExam() *models.Exam {
	exam := e.exams.addExam(&models.Exam{
		TenantID:         1,
		SubmissionID:     1,
		Code:             "OBJX42",
		ClassID:          10,
		SubjectID:        20,
		SessionID:        30,
		TermID:           40,
		ExamType:         models.ExamTypeObjective,
		DurationMinutes:  60,
		MarksPerQuestion: intPtr(10),
		Status:           models.ExamLive,
		AnswerKey:        models.AnswerKey{1: {Choice: "A"}, 2: {Choice: "B"}},
	})
	e.exams.questions[exam.ID] = []models.ObjectiveQuestion{
		{ExamID: exam.ID, QuestionNumber: 1, Text: "first", OptionA: strPtr("x"), OptionB: strPtr("y")},
		{ExamID: exam.ID, QuestionNumber: 2, Text: "second", OptionA: strPtr("x"), OptionB: strPtr("y")},
	}
	return exam
}

// mintAttempt resolves the code once and returns the attempt plus its
// plaintext secret.
func (e *attemptEnv) mintAttempt(t *testing.T, exam *models.Exam) (int64, string) {
	t.Helper()
	resp, err := e.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{Code: exam.Code})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resp.ContinuationSecret == "" {
		t.Fatal("first resolve should mint a secret")
	}
	attempt, err := e.attempts.GetByExamAndStudent(context.Background(), exam.ID, 100)
	if err != nil {
		t.Fatalf("attempt not created: %v", err)
	}
	return attempt.ID, resp.ContinuationSecret
}

func TestResolveCodeMintsSecretExactlyOnce(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()

	first, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{Code: exam.Code})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ContinuationSecret == "" || first.ContinuationRequired {
		t.Fatalf("first resolve should return a secret: %+v", first)
	}
	if first.AttemptStatus != models.AttemptNotStarted {
		t.Fatalf("expected not_started, got %s", first.AttemptStatus)
	}

	second, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{Code: exam.Code})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ContinuationSecret != "" {
		t.Fatal("secret must never be returned again")
	}
	if !second.ContinuationRequired {
		t.Fatal("later resolves without the secret should require continuation")
	}

	third, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{
		Code:               exam.Code,
		ContinuationSecret: first.ContinuationSecret,
	})
	if err != nil {
		t.Fatalf("resolve with valid secret failed: %v", err)
	}
	if third.ContinuationRequired {
		t.Fatal("valid secret should not require continuation")
	}
}

func TestResolveCodeRejectsWrongSecret(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	env.mintAttempt(t, exam)

	_, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{
		Code:               exam.Code,
		ContinuationSecret: "NOTTHESECRET",
	})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestResolveCodeUnknownCode(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	env.addObjectiveExam()

	_, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{Code: "NOSUCH"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveCodeRejectsStudentFromAnotherClass(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	env.roster.addStudent(200, 99, "Other Class")

	_, err := env.svc.ResolveCode(context.Background(), 1, 200, dto.ResolveCodeRequest{Code: exam.Code})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestResolveCodeRejectsExamNotYetLive(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	env.exams.exams[exam.ID].Status = models.ExamApproved

	_, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{Code: exam.Code})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := env.attempts.GetByExamAndStudent(context.Background(), exam.ID, 100); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("no attempt row should be created before the exam starts, got %v", err)
	}
}

func TestResolveCodeSubmittedAttemptNeedsNoSecret(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, _ := env.mintAttempt(t, exam)
	env.attempts.attempts[attemptID].Status = models.AttemptSubmitted

	resp, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{
		Code:               exam.Code,
		ContinuationSecret: "NOTTHESECRET",
	})
	if err != nil {
		t.Fatalf("submitted attempts should resolve regardless of secret: %v", err)
	}
	if resp.AttemptStatus != models.AttemptSubmitted {
		t.Fatalf("expected submitted status, got %s", resp.AttemptStatus)
	}
	if resp.ContinuationRequired {
		t.Fatal("a submitted attempt must not demand the secret")
	}
}

func TestResolveCodeEndedExamIsReadOnly(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	env.exams.exams[exam.ID].Status = models.ExamEnded

	resp, err := env.svc.ResolveCode(context.Background(), 1, 100, dto.ResolveCodeRequest{Code: exam.Code})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.ReadOnly {
		t.Fatal("ended exam should resolve read-only")
	}
	if resp.ContinuationSecret != "" {
		t.Fatal("no secret should be minted for an ended exam")
	}
	if _, err := env.attempts.GetByExamAndStudent(context.Background(), exam.ID, 100); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("no attempt row should be created, got %v", err)
	}
}

func TestBeginStartsAttemptAndFixesDeadline(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	_, secret := env.mintAttempt(t, exam)

	resp, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.EndsAt.Sub(resp.StartedAt); got != 60*time.Minute {
		t.Fatalf("deadline should be started_at + duration, got %v", got)
	}
	if len(resp.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(resp.Questions))
	}
	if len(resp.SavedAnswers) != 0 {
		t.Fatalf("fresh attempt should have no saved answers, got %d", len(resp.SavedAnswers))
	}
}

func TestBeginResumeKeepsOriginalDeadline(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	first, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate a disconnect with some saved work, then resume.
	if err := env.attempts.UpsertAnswers(context.Background(), attemptID, []models.AttemptAnswer{
		{AttemptID: attemptID, QuestionNumber: 1, ObjectiveChoice: strPtr("A")},
	}, time.Now()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !second.StartedAt.Equal(first.StartedAt) || !second.EndsAt.Equal(first.EndsAt) {
		t.Fatal("resume must not move the deadline")
	}
	if len(second.SavedAnswers) != 1 {
		t.Fatalf("resume should return saved answers, got %d", len(second.SavedAnswers))
	}
}

func TestBeginReopensInsideGraceWindow(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	if _, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := env.svc.Submit(context.Background(), 1, 100, exam.ID, dto.SubmitAttemptRequest{ContinuationSecret: secret}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	resp, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if err != nil {
		t.Fatalf("begin inside grace window should reopen: %v", err)
	}
	if resp.StartedAt.IsZero() {
		t.Fatal("reopened attempt should keep its start time")
	}
	a, _ := env.attempts.GetByID(context.Background(), attemptID)
	if a.Status != models.AttemptInProgress {
		t.Fatalf("expected in_progress after reopen, got %s", a.Status)
	}
	if a.TotalScore != nil {
		t.Fatal("reopen should clear the recorded score")
	}
}

func TestBeginRejectsSubmittedOutsideGraceWindow(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	started := time.Now().Add(-30 * time.Minute)
	submitted := time.Now().Add(-10 * time.Minute)
	a := env.attempts.attempts[attemptID]
	a.Status = models.AttemptSubmitted
	a.StartedAt = &started
	a.SubmittedAt = &submitted

	_, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBeginDoesNotReopenWhenTimeRanOut(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	// Force-submitted at the deadline moments ago: inside the grace window
	// but with no exam time left.
	started := time.Now().Add(-2 * time.Hour)
	submitted := time.Now().Add(-time.Minute)
	score := 10
	a := env.attempts.attempts[attemptID]
	a.Status = models.AttemptSubmitted
	a.StartedAt = &started
	a.SubmittedAt = &submitted
	a.TotalScore = &score

	_, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got := env.attempts.attempts[attemptID]
	if got.Status != models.AttemptSubmitted {
		t.Fatalf("attempt must stay submitted, got %s", got.Status)
	}
	if got.TotalScore == nil || *got.TotalScore != 10 {
		t.Fatalf("recorded score must survive the rejected reopen, got %v", got.TotalScore)
	}
}

func TestBeginRejectsWhenTimeHasRunOut(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	started := time.Now().Add(-2 * time.Hour)
	a := env.attempts.attempts[attemptID]
	a.Status = models.AttemptInProgress
	a.StartedAt = &started

	_, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestBeginRejectsExamOutsideLiveWindow(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	_, secret := env.mintAttempt(t, exam)

	env.exams.exams[exam.ID].Status = models.ExamApproved
	if _, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("not-yet-started exam: expected conflict, got %v", err)
	}

	env.exams.exams[exam.ID].Status = models.ExamEnded
	if _, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("ended exam: expected conflict, got %v", err)
	}
}

func TestBeginTheoryExamReturnsPaperRef(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	subID, _ := env.subs.Create(context.Background(), &models.ExamSubmission{
		TenantID:     1,
		TeacherID:    5,
		ClassID:      10,
		PaperFileRef: "papers/theory.pdf",
		Status:       models.SubmissionApproved,
	})
	exam := env.exams.addExam(&models.Exam{
		TenantID:        1,
		SubmissionID:    subID,
		Code:            "THEO77",
		ClassID:         10,
		ExamType:        models.ExamTypeTheory,
		DurationMinutes: 90,
		Status:          models.ExamLive,
	})
	_, secret := env.mintAttempt(t, exam)

	resp, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PaperFileRef != "papers/theory.pdf" {
		t.Fatalf("expected paper ref, got %q", resp.PaperFileRef)
	}
	if len(resp.Questions) != 0 {
		t.Fatal("theory exams carry no parsed questions")
	}
}

func TestSubmitScoresAndWritesLedgerOnce(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	_, secret := env.mintAttempt(t, exam)

	if _, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := env.svc.SaveAnswers(context.Background(), 1, 100, exam.ID, dto.SaveAnswersRequest{
		ContinuationSecret: secret,
		Answers:            []dto.AnswerInput{{QuestionNumber: 1, ObjectiveChoice: strPtr("A")}},
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	first, err := env.svc.Submit(context.Background(), 1, 100, exam.ID, dto.SubmitAttemptRequest{
		ContinuationSecret: secret,
		Answers:            []dto.AnswerInput{{QuestionNumber: 2, ObjectiveChoice: strPtr("B")}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if first.Status != models.AttemptSubmitted {
		t.Fatalf("expected submitted, got %s", first.Status)
	}
	if first.ObjectiveScore == nil || *first.ObjectiveScore != 20 {
		t.Fatalf("expected score 20, got %v", first.ObjectiveScore)
	}
	if len(env.scores.entries) != 1 || env.scores.entries[0].ExamMarks != 20 {
		t.Fatalf("unexpected ledger entries: %+v", env.scores.entries)
	}

	// A repeat submit is rejected and writes nothing new.
	if _, err := env.svc.Submit(context.Background(), 1, 100, exam.ID, dto.SubmitAttemptRequest{ContinuationSecret: secret}); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("repeat submit: expected conflict, got %v", err)
	}
	if len(env.scores.entries) != 1 {
		t.Fatalf("repeat submit must not write the ledger again, got %d entries", len(env.scores.entries))
	}
}

func TestSubmitRejectsAlreadySubmittedAttempt(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	started := time.Now().Add(-30 * time.Minute)
	submitted := time.Now().Add(-10 * time.Minute)
	score := 20
	a := env.attempts.attempts[attemptID]
	a.Status = models.AttemptSubmitted
	a.StartedAt = &started
	a.SubmittedAt = &submitted
	a.ObjectiveScore = &score
	a.TotalScore = &score

	_, err := env.svc.Submit(context.Background(), 1, 100, exam.ID, dto.SubmitAttemptRequest{ContinuationSecret: secret})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := env.attempts.attempts[attemptID]; got.TotalScore == nil || *got.TotalScore != 20 || !got.SubmittedAt.Equal(submitted) {
		t.Fatalf("rejected submit must not touch the recorded attempt: %+v", got)
	}
	if len(env.scores.entries) != 0 {
		t.Fatalf("rejected submit must not write the ledger, got %d entries", len(env.scores.entries))
	}
}

func TestSubmitRejectsEndedExam(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	started := time.Now()
	a := env.attempts.attempts[attemptID]
	a.Status = models.AttemptInProgress
	a.StartedAt = &started
	env.exams.exams[exam.ID].Status = models.ExamEnded

	_, err := env.svc.Submit(context.Background(), 1, 100, exam.ID, dto.SubmitAttemptRequest{ContinuationSecret: secret})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSubmitWithoutKeyLeavesAttemptUnscored(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	env.exams.exams[exam.ID].AnswerKey = nil
	_, secret := env.mintAttempt(t, exam)

	if _, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	resp, err := env.svc.Submit(context.Background(), 1, 100, exam.ID, dto.SubmitAttemptRequest{
		ContinuationSecret: secret,
		Answers:            []dto.AnswerInput{{QuestionNumber: 1, ObjectiveChoice: strPtr("A")}},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.ObjectiveScore != nil {
		t.Fatalf("no key means no score, got %v", resp.ObjectiveScore)
	}
	if len(env.scores.entries) != 0 {
		t.Fatalf("unscored submits must not touch the ledger, got %d entries", len(env.scores.entries))
	}
}

func TestSaveAnswersRejectedPastDeadline(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	started := time.Now().Add(-2 * time.Hour)
	a := env.attempts.attempts[attemptID]
	a.Status = models.AttemptInProgress
	a.StartedAt = &started

	err := env.svc.SaveAnswers(context.Background(), 1, 100, exam.ID, dto.SaveAnswersRequest{
		ContinuationSecret: secret,
		Answers:            []dto.AnswerInput{{QuestionNumber: 1, ObjectiveChoice: strPtr("A")}},
	})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestHeartbeatRequiresRunningAttempt(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, secret := env.mintAttempt(t, exam)

	err := env.svc.Heartbeat(context.Background(), 1, 100, exam.ID, dto.HeartbeatRequest{ContinuationSecret: secret})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("heartbeat before begin: expected conflict, got %v", err)
	}

	if _, err := env.svc.Begin(context.Background(), 1, 100, exam.ID, dto.BeginAttemptRequest{ContinuationSecret: secret}); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := env.svc.Heartbeat(context.Background(), 1, 100, exam.ID, dto.HeartbeatRequest{ContinuationSecret: secret}); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}
	a, _ := env.attempts.GetByID(context.Background(), attemptID)
	if a.LastSeenAt == nil {
		t.Fatal("heartbeat should record last_seen_at")
	}
}

func TestReissueSecretInvalidatesOldOne(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, oldSecret := env.mintAttempt(t, exam)

	resp, err := env.svc.ReissueSecret(context.Background(), 1, attemptID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ContinuationSecret == "" || resp.ContinuationSecret == oldSecret {
		t.Fatal("reissue should mint a fresh secret")
	}

	a, _ := env.attempts.GetByID(context.Background(), attemptID)
	if auth.CheckContinuationSecret(a.SecretHash, oldSecret) {
		t.Fatal("old secret must stop working")
	}
	if !auth.CheckContinuationSecret(a.SecretHash, resp.ContinuationSecret) {
		t.Fatal("new secret should verify")
	}
}

func TestReissueSecretRejectsSubmittedAttempt(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, _ := env.mintAttempt(t, exam)
	env.attempts.attempts[attemptID].Status = models.AttemptSubmitted

	_, err := env.svc.ReissueSecret(context.Background(), 1, attemptID)
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReissueSecretEnforcesTenancy(t *testing.T) {
	env := newAttemptEnv(2 * time.Minute)
	exam := env.addObjectiveExam()
	attemptID, _ := env.mintAttempt(t, exam)

	_, err := env.svc.ReissueSecret(context.Background(), 999, attemptID)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for foreign tenant, got %v", err)
	}
}
