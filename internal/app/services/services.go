package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/app/repositories"
	"github.com/acadion/examcore/internal/config"
	"github.com/acadion/examcore/internal/pkg/filestorage"
	"github.com/acadion/examcore/internal/pkg/helpers"
)

// Narrow store interfaces, satisfied by the repositories. Services depend on
// these so tests can substitute in-memory implementations.

type submissionStore interface {
	Create(ctx context.Context, s *models.ExamSubmission) (int64, error)
	GetByID(ctx context.Context, tenantID, id int64) (*models.ExamSubmission, error)
	List(ctx context.Context, tenantID int64, teacherID *int64, status *models.SubmissionStatus, offset uint64, limit int) ([]models.ExamSubmission, int64, error)
	MarkRejected(ctx context.Context, tenantID, id, reviewerID int64, reason string, now time.Time) error
	Delete(ctx context.Context, tenantID, id int64) error
}

type examStore interface {
	ApproveAndCreateExam(ctx context.Context, exam *models.Exam, questions []models.ObjectiveQuestion, reviewerID int64, now time.Time) (int64, error)
	GetByID(ctx context.Context, tenantID, id int64) (*models.Exam, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*models.Exam, error)
	GetBySubmissionID(ctx context.Context, tenantID, submissionID int64) (*models.Exam, error)
	MarkLive(ctx context.Context, tenantID, id int64, now time.Time) error
	EndExam(ctx context.Context, tenantID, id int64, now time.Time) (int64, error)
	SetAnswerKey(ctx context.Context, tenantID, id int64, key models.AnswerKey, marksPerQuestion *int) error
	ReleaseAnswerSlip(ctx context.Context, tenantID, id int64, now time.Time) error
	ListQuestions(ctx context.Context, examID int64) ([]models.ObjectiveQuestion, error)
}

type attemptStore interface {
	Create(ctx context.Context, examID, studentID int64, secretHash string) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Attempt, error)
	GetByExamAndStudent(ctx context.Context, examID, studentID int64) (*models.Attempt, error)
	ListByExam(ctx context.Context, examID int64) ([]models.Attempt, error)
	UpdateSecretHash(ctx context.Context, id int64, secretHash string) error
	StartAttempt(ctx context.Context, id int64, now time.Time) error
	Touch(ctx context.Context, id int64, now time.Time) error
	UpsertAnswers(ctx context.Context, attemptID int64, answers []models.AttemptAnswer, now time.Time) error
	SubmitAttempt(ctx context.Context, attemptID int64, answers []models.AttemptAnswer, now time.Time, score repositories.ScoreFn) (*models.Attempt, error)
	ReopenAttempt(ctx context.Context, id int64, notBefore, now time.Time) error
	ListAnswers(ctx context.Context, attemptID int64) ([]models.AttemptAnswer, error)
	RegradeSubmitted(ctx context.Context, examID int64, score repositories.ScoreFn) (int, error)
	ApplyManualMarks(ctx context.Context, attemptID int64, marks map[int]int, total int, markedBy int64, now time.Time) error
	ListOverdue(ctx context.Context, now time.Time, grace time.Duration) ([]repositories.OverdueAttempt, error)
}

type rosterStore interface {
	GetStudent(ctx context.Context, tenantID, studentID int64) (*models.RosterStudent, error)
	ListClassStudents(ctx context.Context, tenantID, classID int64) ([]models.RosterStudent, error)
	TeacherAssigned(ctx context.Context, tenantID, teacherID, classID, subjectID int64) (bool, error)
}

type scoreStore interface {
	AddExamMarks(ctx context.Context, tenantID, studentID, classID, subjectID, sessionID, termID int64, examMarks int) error
}

type activityRecorder interface {
	Record(ctx context.Context, entry models.ActivityEntry)
}

type activityReader interface {
	ListRecent(ctx context.Context, tenantID int64, limit int) ([]models.ActivityEntry, error)
}

type paperStorage interface {
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)
	ReadFile(filePath string) ([]byte, error)
	DeleteFile(filePath string) error
}

// Services holds all the service instances
type Services struct {
	SubmissionService *SubmissionService
	RegistryService   *RegistryService
	AttemptService    *AttemptService
	GradingService    *GradingService
	MonitorService    *MonitorService
	Sweeper           *Sweeper
}

// NewServices initializes all services
func NewServices(repos *repositories.Repositories, storage filestorage.FileStorage, cfg *config.Config) *Services {
	graceWindow := helpers.ParseDuration(cfg.Exam.GraceWindow, 2*time.Minute)
	sweepInterval := helpers.ParseDuration(cfg.Exam.SweepInterval, 30*time.Second)

	return &Services{
		SubmissionService: NewSubmissionService(repos.SubmissionRepository, repos.ExamRepository, repos.RosterRepository, repos.ActivityRepository, storage),
		RegistryService:   NewRegistryService(repos.SubmissionRepository, repos.ExamRepository, repos.ActivityRepository, storage, cfg.Exam.CodeAttempts),
		AttemptService:    NewAttemptService(repos.ExamRepository, repos.AttemptRepository, repos.SubmissionRepository, repos.RosterRepository, repos.ScoreRepository, graceWindow),
		GradingService:    NewGradingService(repos.ExamRepository, repos.AttemptRepository, repos.ScoreRepository, repos.ActivityRepository),
		MonitorService:    NewMonitorService(repos.ExamRepository, repos.AttemptRepository, repos.RosterRepository, repos.ActivityRepository),
		Sweeper:           NewSweeper(repos.ExamRepository, repos.AttemptRepository, repos.ScoreRepository, sweepInterval, graceWindow),
	}
}

// examSummary is the shared student/admin projection of an exam.
func examSummary(e *models.Exam) dto.ExamSummary {
	return dto.ExamSummary{
		ExamID:          e.ID,
		Code:            e.Code,
		ClassID:         e.ClassID,
		SubjectID:       e.SubjectID,
		SessionID:       e.SessionID,
		TermID:          e.TermID,
		ExamType:        e.ExamType,
		DurationMinutes: e.DurationMinutes,
		QuestionCount:   e.QuestionCount,
		Status:          e.Status,
	}
}
