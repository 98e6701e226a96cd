package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/acadion/examcore/internal/app/controllers"
	"github.com/acadion/examcore/internal/app/models/dto"
	"github.com/acadion/examcore/internal/middleware"
	"github.com/acadion/examcore/internal/pkg/auth"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrls *controllers.Controllers,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// Health check endpoint (public)
	v1.GET("/ping", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Success: true,
			Data:    gin.H{"status": "ok"},
		})
	})

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// Submission routes: teachers create and list, admins review.
	submissions := authenticated.Group("/submissions")
	{
		submissions.GET("", ctrls.SubmissionController.ListSubmissions)
		submissions.GET("/:id", ctrls.SubmissionController.GetSubmission)

		teacherOnly := submissions.Group("")
		teacherOnly.Use(authMiddleware.RoleRequired(auth.RoleTeacher, auth.RoleAdmin))
		{
			teacherOnly.POST("", ctrls.SubmissionController.CreateSubmission)
		}

		adminOnly := submissions.Group("")
		adminOnly.Use(authMiddleware.RoleRequired(auth.RoleAdmin))
		{
			adminOnly.POST("/:id/approve", ctrls.SubmissionController.ApproveSubmission)
			adminOnly.POST("/:id/reject", ctrls.SubmissionController.RejectSubmission)
			adminOnly.DELETE("/:id", ctrls.SubmissionController.DeleteSubmission)
		}
	}

	// Exam lifecycle and oversight.
	exams := authenticated.Group("/exams")
	{
		staff := exams.Group("")
		staff.Use(authMiddleware.RoleRequired(auth.RoleAdmin, auth.RoleTeacher))
		{
			staff.GET("/:examId", ctrls.ExamController.GetExam)
			staff.GET("/:examId/monitor", ctrls.ExamController.MonitorExam)
			staff.PUT("/:examId/answer-key", ctrls.GradingController.SetAnswerKey)
		}

		adminOnly := exams.Group("")
		adminOnly.Use(authMiddleware.RoleRequired(auth.RoleAdmin))
		{
			adminOnly.POST("/:examId/start", ctrls.ExamController.StartExam)
			adminOnly.POST("/:examId/end", ctrls.ExamController.EndExam)
			adminOnly.POST("/:examId/release-slips", ctrls.ExamController.ReleaseAnswerSlip)
		}

		// Student session endpoints.
		studentOnly := exams.Group("")
		studentOnly.Use(authMiddleware.RoleRequired(auth.RoleStudent))
		{
			studentOnly.POST("/:examId/attempt/begin", ctrls.AttemptController.BeginAttempt)
			studentOnly.POST("/:examId/attempt/heartbeat", ctrls.AttemptController.Heartbeat)
			studentOnly.PUT("/:examId/attempt/answers", ctrls.AttemptController.SaveAnswers)
			studentOnly.POST("/:examId/attempt/submit", ctrls.AttemptController.SubmitAttempt)
		}
	}

	// Admin audit trail.
	activity := authenticated.Group("/activity")
	activity.Use(authMiddleware.RoleRequired(auth.RoleAdmin))
	{
		activity.GET("", ctrls.ExamController.GetActivity)
	}

	attempts := authenticated.Group("/attempts")
	{
		studentOnly := attempts.Group("")
		studentOnly.Use(authMiddleware.RoleRequired(auth.RoleStudent))
		{
			studentOnly.POST("/resolve", ctrls.AttemptController.ResolveCode)
		}

		staff := attempts.Group("")
		staff.Use(authMiddleware.RoleRequired(auth.RoleAdmin, auth.RoleTeacher))
		{
			staff.POST("/:id/marks", ctrls.GradingController.MarkAttempt)
		}

		adminOnly := attempts.Group("")
		adminOnly.Use(authMiddleware.RoleRequired(auth.RoleAdmin))
		{
			adminOnly.POST("/:id/reissue-secret", ctrls.ExamController.ReissueSecret)
		}
	}
}
