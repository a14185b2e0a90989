package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/roster"
	"github.com/lumina-edu/exam-service/internal/services"
	"github.com/lumina-edu/exam-service/internal/utils"
)

type HandlerManager struct {
	examHandler      *ExamHandler
	attemptHandler   *AttemptHandler
	gradingHandler   *GradingHandler
	reAttemptHandler *ReAttemptHandler
	directory        roster.Directory
	logger           utils.Logger
}

func NewHandlerManager(
	examService services.ExamService,
	attemptService services.AttemptService,
	violationService services.ViolationService,
	gradingService services.GradingService,
	reAttemptService services.ReAttemptService,
	exportService services.ExportService,
	directory roster.Directory,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:      NewExamHandler(examService, exportService, logger),
		attemptHandler:   NewAttemptHandler(attemptService, violationService, logger),
		gradingHandler:   NewGradingHandler(gradingService, logger),
		reAttemptHandler: NewReAttemptHandler(reAttemptService, logger),
		directory:        directory,
		logger:           logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint, outside the authenticated surface
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware(hm.directory, hm.logger))
	{
		// Exam lifecycle routes
		exams := v1.Group("/exams")
		{
			exams.POST("", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.POST("/:id/submit-review", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.examHandler.SubmitForReview)
			exams.POST("/:id/review", RequireRole(models.RoleAdmin), hm.examHandler.ReviewExam)
			exams.POST("/:id/publish", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.examHandler.PublishExam)
			exams.GET("/:id/stats", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.examHandler.GetExamStats)
			exams.GET("/:id/export", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.examHandler.ExportResults)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", RequireRole(models.RoleStudent), hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.PUT("/:id/answers", RequireRole(models.RoleStudent), hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", RequireRole(models.RoleStudent), hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/time-remaining", RequireRole(models.RoleStudent), hm.attemptHandler.GetTimeRemaining)
			attempts.POST("/:id/timeout", hm.attemptHandler.HandleTimeout)

			// Anti-cheat monitoring
			attempts.POST("/:id/violations", RequireRole(models.RoleStudent), hm.attemptHandler.RecordViolation)
			attempts.GET("/:id/violations", hm.attemptHandler.ListViolations)

			// Grading and results
			attempts.POST("/:id/answers/:question_id/grade", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.gradingHandler.GradeAnswer)
			attempts.POST("/:id/publish-score", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.gradingHandler.PublishScore)
			attempts.GET("/:id/results", hm.gradingHandler.GetResults)
		}

		// Re-attempt adjudication routes
		reattempts := v1.Group("/reattempts")
		{
			reattempts.POST("", RequireRole(models.RoleStudent), hm.reAttemptHandler.RequestReAttempt)
			reattempts.GET("/pending", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.reAttemptHandler.ListPendingReAttempts)
			reattempts.POST("/:id/review", RequireRole(models.RoleTeacher, models.RoleAdmin), hm.reAttemptHandler.ReviewReAttempt)
		}
	}
}
