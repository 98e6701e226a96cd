package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/app/services"
	"github.com/acadion/examcore/internal/middleware"
	"github.com/acadion/examcore/internal/pkg/apperrors"
)

// GradingController handles answer keys and manual marking.
type GradingController struct {
	gradingService *services.GradingService
}

// NewGradingController creates a new GradingController
func NewGradingController(gradingService *services.GradingService) *GradingController {
	return &GradingController{gradingService: gradingService}
}

// SetAnswerKey handles storing an objective exam's answer key
// @Summary Set the answer key
// @Description Stores the key and re-grades every already-submitted attempt
// @Tags grading
// @Accept json
// @Produce json
// @Param examId path int true "Exam ID"
// @Param request body dto.SetAnswerKeyRequest true "Answer key"
// @Success 200 {object} dto.APIResponse{data=dto.SetAnswerKeyResponse}
// @Failure 409 {object} dto.ErrorResponse "Not an objective exam"
// @Failure 422 {object} dto.ErrorResponse "Key totals exceed the mark cap"
// @Security BearerAuth
// @Router /exams/{examId}/answer-key [put]
func (c *GradingController) SetAnswerKey(ctx *gin.Context) {
	id, err := idParam(ctx, "examId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.SetAnswerKeyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(err.Error()))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.gradingService.SetAnswerKey(ctx.Request.Context(), tenantID, id, userID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Answer key set"))
}

// MarkAttempt handles manual marking of theory and fill-blank attempts
// @Summary Mark an attempt
// @Description Records per-question marks on a submitted attempt and updates the score ledger
// @Tags grading
// @Accept json
// @Produce json
// @Param id path int true "Attempt ID"
// @Param request body dto.MarkAttemptRequest true "Per-question marks"
// @Success 200 {object} dto.APIResponse{data=dto.MarkAttemptResponse}
// @Failure 409 {object} dto.ErrorResponse "Objective attempts are key-graded"
// @Failure 422 {object} dto.ErrorResponse "Attempt not yet submitted"
// @Security BearerAuth
// @Router /attempts/{id}/marks [post]
func (c *GradingController) MarkAttempt(ctx *gin.Context) {
	id, err := idParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	var req dto.MarkAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(err.Error()))
		return
	}
	userID, tenantID, _ := middleware.Identity(ctx)
	resp, err := c.gradingService.MarkAttempt(ctx.Request.Context(), tenantID, id, userID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Attempt marked"))
}
