package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/app/services"
	"github.com/acadion/examcore/internal/middleware"
)

// ExamController handles exam lifecycle and oversight endpoints.
type ExamController struct {
	registryService *services.RegistryService
	monitorService  *services.MonitorService
	attemptService  *services.AttemptService
}

// NewExamController creates a new ExamController
func NewExamController(registryService *services.RegistryService, monitorService *services.MonitorService, attemptService *services.AttemptService) *ExamController {
	return &ExamController{
		registryService: registryService,
		monitorService:  monitorService,
		attemptService:  attemptService,
	}
}

// GetExam handles retrieving one exam
// @Summary Get an exam
// @Tags exams
// @Produce json
// @Param examId path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=models.Exam}
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Security BearerAuth
// @Router /exams/{examId} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	id, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	_, tenantID, _ := middleware.Identity(ctx)
	exam, err := c.registryService.Get(ctx.Request.Context(), tenantID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(exam, ""))
}

// StartExam handles making an exam live
// @Summary Start an exam
// @Description Transitions the exam to live; repeating the call keeps the original start time
// @Tags exams
// @Produce json
// @Param examId path int true "Exam ID"
// @Success 200 {object} dto.APIResponse "Exam started"
// @Failure 409 {object} dto.ErrorResponse "Exam already ended"
// @Security BearerAuth
// @Router /exams/{examId}/start [post]
func (c *ExamController) StartExam(ctx *gin.Context) {
	id, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	if err := c.registryService.Start(ctx.Request.Context(), tenantID, id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Exam started"))
}

// EndExam handles ending an exam
// @Summary End an exam
// @Description Ends the exam and force-submits every running attempt
// @Tags exams
// @Produce json
// @Param examId path int true "Exam ID"
// @Success 200 {object} dto.APIResponse "Exam ended"
// @Failure 409 {object} dto.ErrorResponse "Exam already ended"
// @Security BearerAuth
// @Router /exams/{examId}/end [post]
func (c *ExamController) EndExam(ctx *gin.Context) {
	id, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	forced, err := c.registryService.End(ctx.Request.Context(), tenantID, id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"forcedAttempts": forced}, "Exam ended"))
}

// ReleaseAnswerSlip handles releasing per-student result slips
// @Summary Release answer slips
// @Tags exams
// @Produce json
// @Param examId path int true "Exam ID"
// @Success 200 {object} dto.APIResponse "Answer slips released"
// @Failure 409 {object} dto.ErrorResponse "Exam has not ended"
// @Security BearerAuth
// @Router /exams/{examId}/release-slips [post]
func (c *ExamController) ReleaseAnswerSlip(ctx *gin.Context) {
	id, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	if err := c.registryService.ReleaseAnswerSlip(ctx.Request.Context(), tenantID, id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Answer slips released"))
}

// MonitorExam handles the invigilation dashboard
// @Summary Monitor an exam
// @Description Returns one row per rostered student with live attempt state
// @Tags exams
// @Produce json
// @Param examId path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=dto.MonitorResponse}
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Security BearerAuth
// @Router /exams/{examId}/monitor [get]
func (c *ExamController) MonitorExam(ctx *gin.Context) {
	id, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	_, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.monitorService.MonitorExam(ctx.Request.Context(), tenantID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// GetActivity handles the admin activity feed
// @Summary Recent activity
// @Description Returns the tenant's newest audit entries
// @Tags activity
// @Produce json
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} dto.APIResponse{data=[]models.ActivityEntry}
// @Security BearerAuth
// @Router /activity [get]
func (c *ExamController) GetActivity(ctx *gin.Context) {
	_, tenantID, _ := middleware.Identity(ctx)
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil {
		limit = 50
	}
	entries, err := c.monitorService.RecentActivity(ctx.Request.Context(), tenantID, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}

// ReissueSecret handles replacing a student's lost continuation secret
// @Summary Reissue a continuation secret
// @Description Mints a new secret for an attempt; the plaintext is shown once and the old secret stops working
// @Tags attempts
// @Produce json
// @Param id path int true "Attempt ID"
// @Success 200 {object} dto.APIResponse{data=dto.ReissueSecretResponse}
// @Failure 409 {object} dto.ErrorResponse "Attempt already submitted"
// @Security BearerAuth
// @Router /attempts/{id}/reissue-secret [post]
func (c *ExamController) ReissueSecret(ctx *gin.Context) {
	id, err := idParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	_, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.attemptService.ReissueSecret(ctx.Request.Context(), tenantID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Continuation secret reissued"))
}
