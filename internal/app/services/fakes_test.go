package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/repositories"
	"github.com/acadion/examcore/internal/pkg/apperrors"
)

// In-memory stores mirroring the repository semantics closely enough for
// service-level tests.

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "uq_exams_tenant_code"}
}

type fakeSubmissionStore struct {
	subs   map[int64]*models.ExamSubmission
	nextID int64
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{subs: map[int64]*models.ExamSubmission{}, nextID: 1}
}

func (f *fakeSubmissionStore) Create(_ context.Context, s *models.ExamSubmission) (int64, error) {
	id := f.nextID
	f.nextID++
	cp := *s
	cp.ID = id
	cp.CreatedAt = time.Now()
	f.subs[id] = &cp
	return id, nil
}

func (f *fakeSubmissionStore) GetByID(_ context.Context, tenantID, id int64) (*models.ExamSubmission, error) {
	s, ok := f.subs[id]
	if !ok || s.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("exam submission not found")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissionStore) List(_ context.Context, tenantID int64, teacherID *int64, status *models.SubmissionStatus, offset uint64, limit int) ([]models.ExamSubmission, int64, error) {
	var out []models.ExamSubmission
	for _, s := range f.subs {
		if s.TenantID != tenantID {
			continue
		}
		if teacherID != nil && s.TeacherID != *teacherID {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSubmissionStore) MarkRejected(_ context.Context, tenantID, id, reviewerID int64, reason string, now time.Time) error {
	s, ok := f.subs[id]
	if !ok || s.TenantID != tenantID {
		return apperrors.NewNotFoundError("exam submission not found")
	}
	s.Status = models.SubmissionRejected
	s.RejectionReason = &reason
	s.ReviewedBy = &reviewerID
	s.ReviewedAt = &now
	return nil
}

func (f *fakeSubmissionStore) Delete(_ context.Context, tenantID, id int64) error {
	s, ok := f.subs[id]
	if !ok || s.TenantID != tenantID {
		return apperrors.NewNotFoundError("exam submission not found")
	}
	delete(f.subs, id)
	return nil
}

type fakeExamStore struct {
	exams     map[int64]*models.Exam
	questions map[int64][]models.ObjectiveQuestion
	nextID    int64
	// takenCodes simulates the unique index on (tenant, code).
	takenCodes map[string]bool
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{
		exams:      map[int64]*models.Exam{},
		questions:  map[int64][]models.ObjectiveQuestion{},
		nextID:     1,
		takenCodes: map[string]bool{},
	}
}

func (f *fakeExamStore) addExam(e *models.Exam) *models.Exam {
	if e.ID == 0 {
		e.ID = f.nextID
		f.nextID++
	}
	f.exams[e.ID] = e
	f.takenCodes[fmt.Sprintf("%d/%s", e.TenantID, e.Code)] = true
	return e
}

func (f *fakeExamStore) ApproveAndCreateExam(_ context.Context, exam *models.Exam, questions []models.ObjectiveQuestion, _ int64, _ time.Time) (int64, error) {
	key := fmt.Sprintf("%d/%s", exam.TenantID, exam.Code)
	if f.takenCodes[key] {
		return 0, uniqueViolation()
	}
	cp := *exam
	cp.Status = models.ExamApproved
	created := f.addExam(&cp)
	f.questions[created.ID] = questions
	return created.ID, nil
}

func (f *fakeExamStore) GetByID(_ context.Context, tenantID, id int64) (*models.Exam, error) {
	e, ok := f.exams[id]
	if !ok || e.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("exam not found")
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExamStore) GetByCode(_ context.Context, tenantID int64, code string) (*models.Exam, error) {
	for _, e := range f.exams {
		if e.TenantID == tenantID && e.Code == code {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("no exam with this code")
}

func (f *fakeExamStore) GetBySubmissionID(_ context.Context, tenantID, submissionID int64) (*models.Exam, error) {
	for _, e := range f.exams {
		if e.TenantID == tenantID && e.SubmissionID == submissionID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("exam not found")
}

func (f *fakeExamStore) MarkLive(_ context.Context, tenantID, id int64, now time.Time) error {
	e, ok := f.exams[id]
	if !ok || e.TenantID != tenantID || e.Status == models.ExamEnded {
		return apperrors.NewConflictError("exam has already ended")
	}
	e.Status = models.ExamLive
	if e.StartedAt == nil {
		e.StartedAt = &now
	}
	return nil
}

func (f *fakeExamStore) EndExam(_ context.Context, tenantID, id int64, now time.Time) (int64, error) {
	e, ok := f.exams[id]
	if !ok || e.TenantID != tenantID || e.Status == models.ExamEnded {
		return 0, apperrors.NewConflictError("exam has already ended")
	}
	e.Status = models.ExamEnded
	e.EndedAt = &now
	return 0, nil
}

func (f *fakeExamStore) SetAnswerKey(_ context.Context, tenantID, id int64, key models.AnswerKey, marksPerQuestion *int) error {
	e, ok := f.exams[id]
	if !ok || e.TenantID != tenantID {
		return apperrors.NewNotFoundError("exam not found")
	}
	e.AnswerKey = key
	if marksPerQuestion != nil {
		e.MarksPerQuestion = marksPerQuestion
	}
	return nil
}

func (f *fakeExamStore) ReleaseAnswerSlip(_ context.Context, tenantID, id int64, now time.Time) error {
	e, ok := f.exams[id]
	if !ok || e.TenantID != tenantID {
		return apperrors.NewNotFoundError("exam not found")
	}
	if e.AnswerSlipReleasedAt == nil {
		e.AnswerSlipReleasedAt = &now
	}
	return nil
}

func (f *fakeExamStore) ListQuestions(_ context.Context, examID int64) ([]models.ObjectiveQuestion, error) {
	return f.questions[examID], nil
}

type fakeAttemptStore struct {
	attempts map[int64]*models.Attempt
	answers  map[int64]map[int]models.AttemptAnswer
	nextID   int64
	overdue  []repositories.OverdueAttempt
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts: map[int64]*models.Attempt{},
		answers:  map[int64]map[int]models.AttemptAnswer{},
		nextID:   1,
	}
}

func (f *fakeAttemptStore) Create(_ context.Context, examID, studentID int64, secretHash string) (int64, error) {
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			return 0, uniqueViolation()
		}
	}
	id := f.nextID
	f.nextID++
	f.attempts[id] = &models.Attempt{
		ID:         id,
		ExamID:     examID,
		StudentID:  studentID,
		SecretHash: secretHash,
		Status:     models.AttemptNotStarted,
	}
	f.answers[id] = map[int]models.AttemptAnswer{}
	return id, nil
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id int64) (*models.Attempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("attempt not found")
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) GetByExamAndStudent(_ context.Context, examID, studentID int64) (*models.Attempt, error) {
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("attempt not found")
}

func (f *fakeAttemptStore) ListByExam(_ context.Context, examID int64) ([]models.Attempt, error) {
	var out []models.Attempt
	for _, a := range f.attempts {
		if a.ExamID == examID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) UpdateSecretHash(_ context.Context, id int64, secretHash string) error {
	a, ok := f.attempts[id]
	if !ok {
		return apperrors.NewNotFoundError("attempt not found")
	}
	a.SecretHash = secretHash
	return nil
}

func (f *fakeAttemptStore) StartAttempt(_ context.Context, id int64, now time.Time) error {
	a, ok := f.attempts[id]
	if !ok {
		return apperrors.NewNotFoundError("attempt not found")
	}
	if a.Status == models.AttemptNotStarted {
		a.Status = models.AttemptInProgress
		a.StartedAt = &now
		a.LastSeenAt = &now
	}
	return nil
}

func (f *fakeAttemptStore) Touch(_ context.Context, id int64, now time.Time) error {
	a, ok := f.attempts[id]
	if !ok || a.Status != models.AttemptInProgress {
		return apperrors.NewConflictError("attempt is not in progress")
	}
	a.LastSeenAt = &now
	return nil
}

func (f *fakeAttemptStore) UpsertAnswers(_ context.Context, attemptID int64, answers []models.AttemptAnswer, now time.Time) error {
	a, ok := f.attempts[attemptID]
	if !ok {
		return apperrors.NewNotFoundError("attempt not found")
	}
	if a.Status != models.AttemptInProgress {
		return apperrors.NewConflictError("attempt is not in progress")
	}
	for _, ans := range answers {
		f.answers[attemptID][ans.QuestionNumber] = ans
	}
	a.LastSeenAt = &now
	return nil
}

func (f *fakeAttemptStore) allAnswers(attemptID int64) []models.AttemptAnswer {
	var out []models.AttemptAnswer
	for _, ans := range f.answers[attemptID] {
		out = append(out, ans)
	}
	return out
}

func (f *fakeAttemptStore) SubmitAttempt(_ context.Context, attemptID int64, answers []models.AttemptAnswer, now time.Time, score repositories.ScoreFn) (*models.Attempt, error) {
	a, ok := f.attempts[attemptID]
	if !ok {
		return nil, apperrors.NewNotFoundError("attempt not found")
	}
	if a.Status == models.AttemptSubmitted {
		return nil, apperrors.NewConflictError("attempt has already been submitted")
	}
	if a.Status != models.AttemptInProgress {
		return nil, apperrors.NewConflictError("attempt has not begun")
	}
	for _, ans := range answers {
		f.answers[attemptID][ans.QuestionNumber] = ans
	}
	s := score(f.allAnswers(attemptID))
	a.Status = models.AttemptSubmitted
	a.SubmittedAt = &now
	a.ObjectiveScore = s
	a.TotalScore = s
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) ReopenAttempt(_ context.Context, id int64, notBefore, now time.Time) error {
	a, ok := f.attempts[id]
	if !ok || a.Status != models.AttemptSubmitted || a.SubmittedAt == nil || a.SubmittedAt.Before(notBefore) {
		return apperrors.NewConflictError("attempt can no longer be reopened")
	}
	a.Status = models.AttemptInProgress
	a.SubmittedAt = nil
	a.ObjectiveScore = nil
	a.TotalScore = nil
	a.LastSeenAt = &now
	return nil
}

func (f *fakeAttemptStore) ListAnswers(_ context.Context, attemptID int64) ([]models.AttemptAnswer, error) {
	return f.allAnswers(attemptID), nil
}

func (f *fakeAttemptStore) RegradeSubmitted(_ context.Context, examID int64, score repositories.ScoreFn) (int, error) {
	regraded := 0
	for _, a := range f.attempts {
		if a.ExamID != examID || a.Status != models.AttemptSubmitted {
			continue
		}
		s := score(f.allAnswers(a.ID))
		a.ObjectiveScore = s
		a.TotalScore = s
		regraded++
	}
	return regraded, nil
}

func (f *fakeAttemptStore) ApplyManualMarks(_ context.Context, attemptID int64, marks map[int]int, total int, markedBy int64, now time.Time) error {
	a, ok := f.attempts[attemptID]
	if !ok {
		return apperrors.NewNotFoundError("attempt not found")
	}
	if a.Status != models.AttemptSubmitted {
		return apperrors.NewPreconditionError("attempt has not been submitted")
	}
	for qn, mark := range marks {
		ans, ok := f.answers[attemptID][qn]
		if !ok {
			return apperrors.NewValidationError(fmt.Sprintf("no answer recorded for question %d", qn))
		}
		m := mark
		ans.Mark = &m
		f.answers[attemptID][qn] = ans
	}
	a.TotalScore = &total
	a.MarkedBy = &markedBy
	a.MarkedAt = &now
	return nil
}

func (f *fakeAttemptStore) ListOverdue(_ context.Context, _ time.Time, _ time.Duration) ([]repositories.OverdueAttempt, error) {
	return f.overdue, nil
}

type fakeRosterStore struct {
	students    map[int64]models.RosterStudent
	assignments map[string]bool
}

func newFakeRosterStore() *fakeRosterStore {
	return &fakeRosterStore{students: map[int64]models.RosterStudent{}, assignments: map[string]bool{}}
}

func (f *fakeRosterStore) addStudent(studentID, classID int64, name string) {
	f.students[studentID] = models.RosterStudent{StudentID: studentID, FullName: name, ClassID: classID}
}

func (f *fakeRosterStore) assign(teacherID, classID, subjectID int64) {
	f.assignments[fmt.Sprintf("%d/%d/%d", teacherID, classID, subjectID)] = true
}

func (f *fakeRosterStore) GetStudent(_ context.Context, _, studentID int64) (*models.RosterStudent, error) {
	s, ok := f.students[studentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("student not found")
	}
	return &s, nil
}

func (f *fakeRosterStore) ListClassStudents(_ context.Context, _, classID int64) ([]models.RosterStudent, error) {
	var out []models.RosterStudent
	for _, s := range f.students {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRosterStore) TeacherAssigned(_ context.Context, _, teacherID, classID, subjectID int64) (bool, error) {
	return f.assignments[fmt.Sprintf("%d/%d/%d", teacherID, classID, subjectID)], nil
}

type ledgerEntry struct {
	StudentID int64
	ExamMarks int
}

type fakeScoreStore struct {
	entries []ledgerEntry
}

func (f *fakeScoreStore) AddExamMarks(_ context.Context, _, studentID, _, _, _, _ int64, examMarks int) error {
	f.entries = append(f.entries, ledgerEntry{StudentID: studentID, ExamMarks: examMarks})
	return nil
}

type fakeActivity struct {
	entries []models.ActivityEntry
}

func (f *fakeActivity) Record(_ context.Context, entry models.ActivityEntry) {
	f.entries = append(f.entries, entry)
}

func (f *fakeActivity) ListRecent(_ context.Context, tenantID int64, limit int) ([]models.ActivityEntry, error) {
	var out []models.ActivityEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].TenantID == tenantID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

type fakeStorage struct {
	files map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}}
}

func (f *fakeStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}
	ref := subPath + "/" + fileHeader.Filename
	f.files[ref] = nil
	return ref, nil
}

func (f *fakeStorage) ReadFile(filePath string) ([]byte, error) {
	data, ok := f.files[filePath]
	if !ok {
		return nil, errors.New("file not found: " + filePath)
	}
	return data, nil
}

func (f *fakeStorage) DeleteFile(filePath string) error {
	delete(f.files, filePath)
	return nil
}
