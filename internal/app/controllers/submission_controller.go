package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadion/examcore/internal/app/models"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/app/services"
	"github.com/acadion/examcore/internal/middleware"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/auth"
	"github.com/acadion/examcore/internal/pkg/helpers"
)

// SubmissionController handles exam submission endpoints.
type SubmissionController struct {
	submissionService *services.SubmissionService
	registryService   *services.RegistryService
}

// NewSubmissionController creates a new SubmissionController
func NewSubmissionController(submissionService *services.SubmissionService, registryService *services.RegistryService) *SubmissionController {
	return &SubmissionController{
		submissionService: submissionService,
		registryService:   registryService,
	}
}

// CreateSubmission handles a teacher uploading a new exam package
// @Summary Submit an exam package
// @Description Uploads a paper file plus metadata; objective exams also need a .txt source file
// @Tags submissions
// @Accept multipart/form-data
// @Produce json
// @Param classId formData int true "Class ID"
// @Param subjectId formData int true "Subject ID"
// @Param sessionId formData int true "Session ID"
// @Param termId formData int true "Term ID"
// @Param examType formData string true "Exam type (objective, theory, fill_blank)"
// @Param durationMinutes formData int true "Duration in minutes"
// @Param questionCount formData int false "Declared question count"
// @Param marksPerQuestion formData int false "Marks per question"
// @Param paper formData file true "Exam paper file"
// @Param source formData file false "Plain-text source file (objective exams)"
// @Success 201 {object} dto.APIResponse{data=models.ExamSubmission} "Submission created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Teacher not assigned to class/subject"
// @Security BearerAuth
// @Router /submissions [post]
func (c *SubmissionController) CreateSubmission(ctx *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(err.Error()))
		return
	}

	paper, err := ctx.FormFile("paper")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("paper file is required"))
		return
	}
	source, _ := ctx.FormFile("source")

	userID, tenantID, _ := middleware.Identity(ctx)
	sub, err := c.submissionService.Create(ctx.Request.Context(), tenantID, userID, req, paper, source)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(sub, "Submission created"))
}

// GetSubmission handles retrieving one submission
// @Summary Get a submission
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse{data=models.ExamSubmission}
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	id, err := idParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	userID, tenantID, role := middleware.Identity(ctx)
	sub, err := c.submissionService.Get(ctx.Request.Context(), tenantID, id, userID, role == auth.RoleAdmin)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(sub, ""))
}

// ListSubmissions handles listing submissions with filters
// @Summary List submissions
// @Description Pages through submissions; teachers see only their own
// @Tags submissions
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 10)"
// @Param status query string false "Filter by status (pending, approved, rejected)"
// @Success 200 {object} dto.APIResponse{data=[]models.ExamSubmission,pagination=dto.PaginationInfo}
// @Security BearerAuth
// @Router /submissions [get]
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	page, size := pageParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	var status *models.SubmissionStatus
	if s := ctx.Query("status"); s != "" {
		st := models.SubmissionStatus(s)
		status = &st
	}

	userID, tenantID, role := middleware.Identity(ctx)
	subs, total, err := c.submissionService.List(ctx.Request.Context(), tenantID, nil, status, offset, limit, userID, role == auth.RoleAdmin)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPagedResponse(subs, page, limit, total))
}

// ApproveSubmission handles approving a submission into a live exam
// @Summary Approve a submission
// @Description Creates the exam, parses objective questions and allocates the exam code
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApproveSubmissionResponse} "Exam created"
// @Failure 409 {object} dto.ErrorResponse "Submission is not pending"
// @Failure 422 {object} dto.ErrorResponse "Mark arithmetic exceeds the cap"
// @Security BearerAuth
// @Router /submissions/{id}/approve [post]
func (c *SubmissionController) ApproveSubmission(ctx *gin.Context) {
	id, err := idParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.registryService.Approve(ctx.Request.Context(), tenantID, id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Submission approved"))
}

// RejectSubmission handles rejecting a submission
// @Summary Reject a submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param request body dto.RejectSubmissionRequest true "Rejection reason"
// @Success 200 {object} dto.APIResponse "Submission rejected"
// @Failure 409 {object} dto.ErrorResponse "Submission already approved"
// @Security BearerAuth
// @Router /submissions/{id}/reject [post]
func (c *SubmissionController) RejectSubmission(ctx *gin.Context) {
	id, err := idParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.RejectSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("rejection reason is required"))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	if err := c.submissionService.Reject(ctx.Request.Context(), tenantID, id, userID, req.Reason); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Submission rejected"))
}

// DeleteSubmission handles deleting a rejected submission
// @Summary Delete a rejected submission
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse "Submission deleted"
// @Failure 409 {object} dto.ErrorResponse "Submission is not rejected"
// @Security BearerAuth
// @Router /submissions/{id} [delete]
func (c *SubmissionController) DeleteSubmission(ctx *gin.Context) {
	id, err := idParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	if err := c.submissionService.Delete(ctx.Request.Context(), tenantID, id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Submission deleted"))
}
