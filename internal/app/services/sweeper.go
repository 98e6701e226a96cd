package services

import (
	"context"
	"time"

	"github.com/acadion/examcore/internal/pkg/logger"
)

// Sweeper force-submits attempts whose per-student deadline has passed.
// Deadlines are advisory on the client; this is the server-side enforcement
// that makes them real even when the client vanishes mid-exam. Attempts get
// the same grace window the reopen path honors before being swept.
type Sweeper struct {
	exams    examStore
	attempts attemptStore
	scores   scoreStore
	interval time.Duration
	grace    time.Duration
}

// NewSweeper creates a new Sweeper
func NewSweeper(exams examStore, attempts attemptStore, scores scoreStore, interval, grace time.Duration) *Sweeper {
	return &Sweeper{
		exams:    exams,
		attempts: attempts,
		scores:   scores,
		interval: interval,
		grace:    grace,
	}
}

// Run sweeps on a fixed interval until the context is cancelled. Meant to
// run as a single background goroutine for the process lifetime.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", s.interval).Msg("Deadline sweeper started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Deadline sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep submits every overdue attempt it finds. Attempts are handled one by
// one so a failure on one row cannot block the rest; failures are logged and
// retried naturally on the next tick.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()
	overdue, err := s.attempts.ListOverdue(ctx, now, s.grace)
	if err != nil {
		logger.Error().Err(err).Msg("Sweep failed to list overdue attempts")
		return
	}
	if len(overdue) == 0 {
		return
	}

	for _, o := range overdue {
		exam, err := s.exams.GetByID(ctx, o.TenantID, o.ExamID)
		if err != nil {
			logger.Error().Err(err).Int64("examID", o.ExamID).Msg("Sweep failed to load exam")
			continue
		}

		submitted, err := s.attempts.SubmitAttempt(ctx, o.AttemptID, nil, now, objectiveScoreFn(exam))
		if err != nil {
			logger.Error().Err(err).Int64("attemptID", o.AttemptID).Msg("Sweep failed to submit overdue attempt")
			continue
		}
		logger.Info().Int64("attemptID", o.AttemptID).Int64("examID", o.ExamID).Msg("Overdue attempt force-submitted")

		if submitted.TotalScore != nil {
			err := s.scores.AddExamMarks(ctx, exam.TenantID, submitted.StudentID, exam.ClassID, exam.SubjectID, exam.SessionID, exam.TermID, *submitted.TotalScore)
			if err != nil {
				logger.Error().Err(err).Int64("attemptID", o.AttemptID).Msg("Sweep failed to record score in ledger")
			}
		}
	}
}
