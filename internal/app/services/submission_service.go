package services

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/logger"
)

// SubmissionService manages teacher exam packages through their review
// lifecycle: create, list, reject, delete. Approval lives in the registry
// service because it creates the exam.
type SubmissionService struct {
	submissions submissionStore
	exams       examStore
	roster      rosterStore
	activity    activityRecorder
	storage     paperStorage
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(submissions submissionStore, exams examStore, roster rosterStore, activity activityRecorder, storage paperStorage) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		exams:       exams,
		roster:      roster,
		activity:    activity,
		storage:     storage,
	}
}

// Create validates and stores a new exam package. The teacher must be
// assigned to the class/subject pair, and objective papers must come with a
// plain-text source file for parsing at approval time.
func (s *SubmissionService) Create(ctx context.Context, tenantID, teacherID int64, req dto.CreateSubmissionRequest, paper, source *multipart.FileHeader) (*models.ExamSubmission, error) {
	examType := models.ExamType(req.ExamType)
	if !examType.Valid() {
		return nil, apperrors.NewValidationError("unknown exam type: " + req.ExamType)
	}
	if paper == nil {
		return nil, apperrors.NewValidationError("paper file is required")
	}
	if examType == models.ExamTypeObjective {
		if source == nil {
			return nil, apperrors.NewValidationError("objective exams require a plain-text source file")
		}
		if !strings.EqualFold(filepath.Ext(source.Filename), ".txt") {
			return nil, apperrors.NewValidationError("source file must be a .txt file")
		}
		if req.MarksPerQuestion == nil {
			return nil, apperrors.NewValidationError("objective exams require marks per question")
		}
	}
	if req.MarksPerQuestion != nil && *req.MarksPerQuestion <= 0 {
		return nil, apperrors.NewValidationError("marks per question must be positive")
	}

	assigned, err := s.roster.TeacherAssigned(ctx, tenantID, teacherID, req.ClassID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, apperrors.NewForbiddenError("teacher is not assigned to this class and subject")
	}

	paperRef, err := s.storage.SaveFileWithPath(paper, "papers")
	if err != nil {
		return nil, err
	}
	var sourceRef *string
	if source != nil {
		ref, err := s.storage.SaveFileWithPath(source, "sources")
		if err != nil {
			_ = s.storage.DeleteFile(paperRef)
			return nil, err
		}
		sourceRef = &ref
	}

	sub := &models.ExamSubmission{
		TenantID:         tenantID,
		TeacherID:        teacherID,
		ClassID:          req.ClassID,
		SubjectID:        req.SubjectID,
		SessionID:        req.SessionID,
		TermID:           req.TermID,
		ExamType:         examType,
		DurationMinutes:  req.DurationMinutes,
		QuestionCount:    req.QuestionCount,
		MarksPerQuestion: req.MarksPerQuestion,
		PaperFileRef:     paperRef,
		SourceFileRef:    sourceRef,
		Status:           models.SubmissionPending,
	}
	id, err := s.submissions.Create(ctx, sub)
	if err != nil {
		_ = s.storage.DeleteFile(paperRef)
		if sourceRef != nil {
			_ = s.storage.DeleteFile(*sourceRef)
		}
		return nil, err
	}
	sub.ID = id
	sub.CreatedAt = time.Now()

	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   teacherID,
		Action:    "submission.created",
		Detail:    string(sub.ExamType) + " exam package submitted",
		CreatedAt: time.Now(),
	})
	return sub, nil
}

// Get returns one submission. Teachers may only see their own.
func (s *SubmissionService) Get(ctx context.Context, tenantID, id int64, requesterID int64, isAdmin bool) (*models.ExamSubmission, error) {
	sub, err := s.submissions.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && sub.TeacherID != requesterID {
		return nil, apperrors.NewForbiddenError("submission belongs to another teacher")
	}
	return sub, nil
}

// List pages through a tenant's submissions. Non-admin callers are pinned to
// their own rows regardless of the filter they pass.
func (s *SubmissionService) List(ctx context.Context, tenantID int64, teacherID *int64, status *models.SubmissionStatus, offset uint64, limit int, requesterID int64, isAdmin bool) ([]models.ExamSubmission, int64, error) {
	if !isAdmin {
		teacherID = &requesterID
	}
	return s.submissions.List(ctx, tenantID, teacherID, status, offset, limit)
}

// Reject records a rejection with its mandatory reason. A submission whose
// exam already exists cannot be rejected.
func (s *SubmissionService) Reject(ctx context.Context, tenantID, id, reviewerID int64, reason string) error {
	sub, err := s.submissions.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if sub.Status == models.SubmissionApproved {
		return apperrors.NewConflictError("submission has already been approved")
	}

	if err := s.submissions.MarkRejected(ctx, tenantID, id, reviewerID, reason, time.Now()); err != nil {
		return err
	}
	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   reviewerID,
		Action:    "submission.rejected",
		Detail:    reason,
		CreatedAt: time.Now(),
	})
	return nil
}

// Delete removes a rejected submission and its stored files. Pending and
// approved submissions are never deletable.
func (s *SubmissionService) Delete(ctx context.Context, tenantID, id, actorID int64) error {
	sub, err := s.submissions.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if sub.Status != models.SubmissionRejected {
		return apperrors.NewConflictError("only rejected submissions can be deleted")
	}

	if err := s.submissions.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.storage.DeleteFile(sub.PaperFileRef); err != nil {
		logger.Warn().Err(err).Str("ref", sub.PaperFileRef).Msg("Failed to delete paper file")
	}
	if sub.SourceFileRef != nil {
		if err := s.storage.DeleteFile(*sub.SourceFileRef); err != nil {
			logger.Warn().Err(err).Str("ref", *sub.SourceFileRef).Msg("Failed to delete source file")
		}
	}
	s.activity.Record(ctx, models.ActivityEntry{
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    "submission.deleted",
		CreatedAt: time.Now(),
	})
	return nil
}
