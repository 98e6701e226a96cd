package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/app/services"
	"github.com/acadion/examcore/internal/middleware"
	"github.com/acadion/examcore/internal/pkg/apperrors"
)

// AttemptController handles the student-facing exam session endpoints.
type AttemptController struct {
	attemptService *services.AttemptService
}

// NewAttemptController creates a new AttemptController
func NewAttemptController(attemptService *services.AttemptService) *AttemptController {
	return &AttemptController{attemptService: attemptService}
}

// ResolveCode handles mapping an exam code to the caller's attempt
// @Summary Resolve an exam code
// @Description First resolution creates the attempt and returns the continuation secret exactly once
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body dto.ResolveCodeRequest true "Exam code and optional continuation secret"
// @Success 200 {object} dto.APIResponse{data=dto.ResolveCodeResponse}
// @Failure 403 {object} dto.ErrorResponse "Wrong class or wrong secret"
// @Failure 404 {object} dto.ErrorResponse "Unknown code"
// @Security BearerAuth
// @Router /attempts/resolve [post]
func (c *AttemptController) ResolveCode(ctx *gin.Context) {
	var req dto.ResolveCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("exam code is required"))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.attemptService.ResolveCode(ctx.Request.Context(), tenantID, userID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// BeginAttempt handles starting or resuming an attempt
// @Summary Begin or resume an attempt
// @Description Starts the clock on first begin; resumes with the original deadline after a disconnect
// @Tags attempts
// @Accept json
// @Produce json
// @Param examId path int true "Exam ID"
// @Param request body dto.BeginAttemptRequest true "Continuation secret"
// @Success 200 {object} dto.APIResponse{data=dto.BeginAttemptResponse}
// @Failure 403 {object} dto.ErrorResponse "Wrong continuation secret"
// @Failure 409 {object} dto.ErrorResponse "Exam not live or time expired"
// @Security BearerAuth
// @Router /exams/{examId}/attempt/begin [post]
func (c *AttemptController) BeginAttempt(ctx *gin.Context) {
	examID, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.BeginAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("continuation secret is required"))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.attemptService.Begin(ctx.Request.Context(), tenantID, userID, examID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// Heartbeat handles attempt liveness pings
// @Summary Record a heartbeat
// @Tags attempts
// @Accept json
// @Produce json
// @Param examId path int true "Exam ID"
// @Param request body dto.HeartbeatRequest true "Continuation secret"
// @Success 200 {object} dto.APIResponse "Heartbeat recorded"
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in progress"
// @Security BearerAuth
// @Router /exams/{examId}/attempt/heartbeat [post]
func (c *AttemptController) Heartbeat(ctx *gin.Context) {
	examID, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.HeartbeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("continuation secret is required"))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	if err := c.attemptService.Heartbeat(ctx.Request.Context(), tenantID, userID, examID, req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Heartbeat recorded"))
}

// SaveAnswers handles saving an answer batch
// @Summary Save answers
// @Description Upserts a batch of answers; the last write per question wins
// @Tags attempts
// @Accept json
// @Produce json
// @Param examId path int true "Exam ID"
// @Param request body dto.SaveAnswersRequest true "Answer batch with continuation secret"
// @Success 200 {object} dto.APIResponse "Answers saved"
// @Failure 409 {object} dto.ErrorResponse "Attempt not in progress or time expired"
// @Security BearerAuth
// @Router /exams/{examId}/attempt/answers [put]
func (c *AttemptController) SaveAnswers(ctx *gin.Context) {
	examID, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.SaveAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(err.Error()))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	if err := c.attemptService.SaveAnswers(ctx.Request.Context(), tenantID, userID, examID, req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Answers saved"))
}

// SubmitAttempt handles final submission
// @Summary Submit an attempt
// @Description Merges a final answer batch and finalizes; a second submit is rejected
// @Tags attempts
// @Accept json
// @Produce json
// @Param examId path int true "Exam ID"
// @Param request body dto.SubmitAttemptRequest true "Final answers with continuation secret"
// @Success 200 {object} dto.APIResponse{data=dto.SubmitAttemptResponse}
// @Failure 403 {object} dto.ErrorResponse "Wrong continuation secret"
// @Failure 409 {object} dto.ErrorResponse "Attempt already submitted"
// @Security BearerAuth
// @Router /exams/{examId}/attempt/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	examID, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(err.Error()))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.attemptService.Submit(ctx.Request.Context(), tenantID, userID, examID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Attempt submitted"))
}
