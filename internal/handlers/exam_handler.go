package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
	"github.com/lumina-edu/exam-service/internal/services"
	"github.com/lumina-edu/exam-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService   services.ExamService
	exportService services.ExportService
}

func NewExamHandler(
	examService services.ExamService,
	exportService services.ExportService,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler:   NewBaseHandler(logger),
		examService:   examService,
		exportService: exportService,
	}
}

// CreateExam creates a new exam with its questions
// @Summary Create exam
// @Description Creates an exam; teacher submissions enter review, admin submissions publish immediately
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} services.ExamResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam returns one exam
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ListExams returns exams visible to the caller
// @Summary List exams
// @Tags exams
// @Produce json
// @Param status query string false "Filter by status"
// @Param course_id query uint false "Filter by course"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} ListResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	filters := parseExamFilters(c)

	exams, total, err := h.examService.List(c.Request.Context(), filters, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: exams, Total: total})
}

// SubmitForReview moves a draft exam into the review queue
// @Summary Submit exam for review
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id}/submit-review [post]
func (h *ExamHandler) SubmitForReview(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Submitting exam for review", "exam_id", examID)

	if err := h.examService.SubmitForReview(c.Request.Context(), examID, CurrentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam submitted for review"})
}

// ReviewExam approves or rejects a pending exam
// @Summary Review exam
// @Description Admin decision on a pending exam; approval publishes it
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param review body services.ReviewExamRequest true "Review decision"
// @Success 200 {object} services.ExamResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id}/review [post]
func (h *ExamHandler) ReviewExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Reviewing exam", "exam_id", examID)

	var req services.ReviewExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	exam, err := h.examService.Review(c.Request.Context(), examID, &req, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// PublishExam publishes an approved exam
// @Summary Publish exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id}/publish [post]
func (h *ExamHandler) PublishExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Publishing exam", "exam_id", examID)

	exam, err := h.examService.Publish(c.Request.Context(), examID, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// GetExamStats returns attempt statistics for an exam
// @Summary Get exam statistics
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} services.ExamStatsResponse
// @Router /exams/{id}/stats [get]
func (h *ExamHandler) GetExamStats(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	stats, err := h.examService.GetStats(c.Request.Context(), examID, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportResults streams an xlsx workbook of all attempts
// @Summary Export exam results
// @Tags exams
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Exam ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /exams/{id}/export [get]
func (h *ExamHandler) ExportResults(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", examID)

	data, filename, err := h.exportService.ExportResults(c.Request.Context(), examID, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func parseExamFilters(c *gin.Context) repositories.ExamFilters {
	filters := repositories.ExamFilters{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		s := models.ExamStatus(status)
		filters.Status = &s
	}
	if courseID, err := strconv.ParseUint(c.Query("course_id"), 10, 32); err == nil && courseID > 0 {
		id := uint(courseID)
		filters.CourseID = &id
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}
	return filters
}
