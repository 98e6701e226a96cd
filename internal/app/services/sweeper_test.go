package services

import (
	"context"
	"testing"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/repositories"
)

func TestSweepForceSubmitsOverdueAttempts(t *testing.T) {
	exams := newFakeExamStore()
	attempts := newFakeAttemptStore()
	scores := &fakeScoreStore{}
	sweeper := NewSweeper(exams, attempts, scores, time.Minute, 2*time.Minute)

	exam := exams.addExam(&models.Exam{
		TenantID:        1,
		Code:            "SWP001",
		ClassID:         10,
		SubjectID:       20,
		SessionID:       30,
		TermID:          40,
		ExamType:        models.ExamTypeObjective,
		DurationMinutes: 60,
		Status:          models.ExamLive,
		AnswerKey:       models.AnswerKey{1: {Choice: "A", Mark: 15}},
	})

	started := time.Now().Add(-2 * time.Hour)
	attemptID, _ := attempts.Create(context.Background(), exam.ID, 100, "h")
	attempts.attempts[attemptID].Status = models.AttemptInProgress
	attempts.attempts[attemptID].StartedAt = &started
	attempts.answers[attemptID][1] = models.AttemptAnswer{QuestionNumber: 1, ObjectiveChoice: strPtr("A")}

	attempts.overdue = []repositories.OverdueAttempt{
		{AttemptID: attemptID, ExamID: exam.ID, TenantID: 1},
	}

	sweeper.Sweep(context.Background())

	a, _ := attempts.GetByID(context.Background(), attemptID)
	if a.Status != models.AttemptSubmitted {
		t.Fatalf("expected submitted, got %s", a.Status)
	}
	if a.TotalScore == nil || *a.TotalScore != 15 {
		t.Fatalf("saved answers should be scored, got %v", a.TotalScore)
	}
	if len(scores.entries) != 1 || scores.entries[0].ExamMarks != 15 {
		t.Fatalf("unexpected ledger entries: %+v", scores.entries)
	}
}

func TestSweepSkipsFailingRowsAndContinues(t *testing.T) {
	exams := newFakeExamStore()
	attempts := newFakeAttemptStore()
	scores := &fakeScoreStore{}
	sweeper := NewSweeper(exams, attempts, scores, time.Minute, 2*time.Minute)

	exam := exams.addExam(&models.Exam{
		TenantID:        1,
		Code:            "SWP002",
		ClassID:         10,
		ExamType:        models.ExamTypeTheory,
		DurationMinutes: 60,
		Status:          models.ExamLive,
	})

	started := time.Now().Add(-2 * time.Hour)
	goodID, _ := attempts.Create(context.Background(), exam.ID, 100, "h")
	attempts.attempts[goodID].Status = models.AttemptInProgress
	attempts.attempts[goodID].StartedAt = &started

	// First row points at an exam that no longer resolves; the second must
	// still be swept.
	attempts.overdue = []repositories.OverdueAttempt{
		{AttemptID: 999, ExamID: 888, TenantID: 1},
		{AttemptID: goodID, ExamID: exam.ID, TenantID: 1},
	}

	sweeper.Sweep(context.Background())

	a, _ := attempts.GetByID(context.Background(), goodID)
	if a.Status != models.AttemptSubmitted {
		t.Fatalf("sweep should continue past failures, got %s", a.Status)
	}
	if a.TotalScore != nil {
		t.Fatal("theory attempts sweep unscored")
	}
	if len(scores.entries) != 0 {
		t.Fatalf("unscored sweeps must not touch the ledger: %+v", scores.entries)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	attempts := newFakeAttemptStore()
	sweeper := NewSweeper(newFakeExamStore(), attempts, &fakeScoreStore{}, time.Millisecond, 2*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
