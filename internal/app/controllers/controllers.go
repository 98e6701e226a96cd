package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadion/examcore/internal/app/services"
	"github.com/acadion/examcore/internal/pkg/apperrors"
	"github.com/acadion/examcore/internal/pkg/helpers"
)

// Controllers holds all the controller instances
type Controllers struct {
	SubmissionController *SubmissionController
	ExamController       *ExamController
	AttemptController    *AttemptController
	GradingController    *GradingController
}

// NewControllers initializes all controllers
func NewControllers(svcs *services.Services) *Controllers {
	return &Controllers{
		SubmissionController: NewSubmissionController(svcs.SubmissionService, svcs.RegistryService),
		ExamController:       NewExamController(svcs.RegistryService, svcs.MonitorService, svcs.AttemptService),
		AttemptController:    NewAttemptController(svcs.AttemptService),
		GradingController:    NewGradingController(svcs.GradingService),
	}
}

// idParam parses a positive int64 path parameter.
func idParam(ctx *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid " + name + " parameter")
	}
	return id, nil
}

// pageParams parses the page/size query parameters with defaults.
func pageParams(ctx *gin.Context) (page, size int) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", strconv.Itoa(helpers.DefaultPage)))
	if err != nil || page < 1 {
		page = helpers.DefaultPage
	}
	size, err = strconv.Atoi(ctx.DefaultQuery("size", strconv.Itoa(helpers.DefaultPageSize)))
	if err != nil || size <= 0 || size > helpers.MaxPageSize {
		size = helpers.DefaultPageSize
	}
	return page, size
}
