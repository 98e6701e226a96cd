package services

import (
	"context"
	"testing"
	"time"

	"github.com/acadion/examcore/internal/app/models"
)

func TestMonitorExamCoversWholeRoster(t *testing.T) {
	exams := newFakeExamStore()
	attempts := newFakeAttemptStore()
	roster := newFakeRosterStore()
	svc := NewMonitorService(exams, attempts, roster, &fakeActivity{})

	exam := exams.addExam(&models.Exam{TenantID: 1, Code: "MON001", ClassID: 10, Status: models.ExamLive, DurationMinutes: 60})
	roster.addStudent(100, 10, "Ada Obi")
	roster.addStudent(101, 10, "Bola Sanni")
	roster.addStudent(102, 10, "Chike Eze")
	roster.addStudent(200, 99, "Other Class")

	// 100 is mid-exam, 101 has submitted with a score, 102 never resolved.
	now := time.Now()
	id100, _ := attempts.Create(context.Background(), exam.ID, 100, "h")
	attempts.attempts[id100].Status = models.AttemptInProgress
	attempts.attempts[id100].StartedAt = &now
	attempts.attempts[id100].LastSeenAt = &now

	id101, _ := attempts.Create(context.Background(), exam.ID, 101, "h")
	attempts.attempts[id101].Status = models.AttemptSubmitted
	attempts.attempts[id101].SubmittedAt = &now
	attempts.attempts[id101].TotalScore = intPtr(70)

	resp, err := svc.MonitorExam(context.Background(), 1, exam.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Students) != 3 {
		t.Fatalf("expected one row per rostered student, got %d", len(resp.Students))
	}

	byStudent := map[int64]int{}
	for i, row := range resp.Students {
		byStudent[row.StudentID] = i
	}
	if _, ok := byStudent[200]; ok {
		t.Fatal("students from other classes must not appear")
	}

	inProgress := resp.Students[byStudent[100]]
	if inProgress.Status != models.AttemptInProgress || inProgress.LastSeenAt == nil {
		t.Fatalf("unexpected in-progress row: %+v", inProgress)
	}
	if inProgress.TotalScore != nil {
		t.Fatal("scores must stay hidden until submission")
	}

	submitted := resp.Students[byStudent[101]]
	if submitted.Status != models.AttemptSubmitted || submitted.TotalScore == nil || *submitted.TotalScore != 70 {
		t.Fatalf("unexpected submitted row: %+v", submitted)
	}

	idle := resp.Students[byStudent[102]]
	if idle.Status != models.AttemptNotStarted {
		t.Fatalf("unresolved student should read not_started, got %s", idle.Status)
	}
}

func TestRecentActivityScopedToTenant(t *testing.T) {
	activity := &fakeActivity{}
	svc := NewMonitorService(newFakeExamStore(), newFakeAttemptStore(), newFakeRosterStore(), activity)

	activity.Record(context.Background(), models.ActivityEntry{TenantID: 1, ActorID: 7, Action: "exam.started"})
	activity.Record(context.Background(), models.ActivityEntry{TenantID: 2, ActorID: 8, Action: "exam.ended"})
	activity.Record(context.Background(), models.ActivityEntry{TenantID: 1, ActorID: 7, Action: "exam.ended"})

	entries, err := svc.RecentActivity(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for tenant 1, got %d", len(entries))
	}
	for _, e := range entries {
		if e.TenantID != 1 {
			t.Fatalf("foreign tenant entry leaked: %+v", e)
		}
	}
	if entries[0].Action != "exam.ended" {
		t.Fatalf("newest entry should come first, got %s", entries[0].Action)
	}

	// A bad limit falls back to the default instead of erroring.
	if _, err := svc.RecentActivity(context.Background(), 1, -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
