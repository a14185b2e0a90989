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

type AttemptHandler struct {
	BaseHandler
	attemptService   services.AttemptService
	violationService services.ViolationService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	violationService services.ViolationService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:      NewBaseHandler(logger),
		attemptService:   attemptService,
		violationService: violationService,
	}
}

// StartAttempt starts or resumes an exam attempt
// @Summary Start attempt
// @Description Starts a new attempt, or returns the caller's in-progress attempt for the exam
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.StartAttemptRequest true "Exam to attempt"
// @Success 201 {object} services.AttemptResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting attempt", "exam_id", req.ExamID)

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if attempt.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, attempt)
}

// SaveAnswer stores one answer on an in-progress attempt
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SubmitAnswerInput true "Answer content"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers [put]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.SubmitAnswerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, &req, CurrentUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer saved"})
}

// SubmitAttempt submits an in-progress attempt for grading
// @Summary Submit attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param submission body services.SubmitAttemptRequest true "Final answers"
// @Success 200 {object} services.AttemptSummaryResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.AttemptID = attemptID

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID, "answers_count", len(req.Answers))

	summary, err := h.attemptService.Submit(c.Request.Context(), &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTimeRemaining reports the countdown for an in-progress attempt
// @Summary Get time remaining
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.TimeRemainingResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/time-remaining [get]
func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	remaining, err := h.attemptService.GetTimeRemaining(c.Request.Context(), attemptID, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, remaining)
}

// HandleTimeout finalizes an expired attempt
// @Summary Handle timeout
// @Description Force-submits an attempt whose time limit has lapsed; no-op otherwise
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Router /attempts/{id}/timeout [post]
func (h *AttemptHandler) HandleTimeout(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Handling attempt timeout", "attempt_id", attemptID)

	if err := h.attemptService.HandleTimeout(c.Request.Context(), attemptID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Timeout processed"})
}

// ListAttempts returns attempts visible to the caller
// @Summary List attempts
// @Description Students see their own attempts; teachers see attempts on exams they authored
// @Tags attempts
// @Produce json
// @Param exam_id query uint false "Filter by exam"
// @Param status query string false "Filter by status"
// @Success 200 {object} ListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	filters := parseAttemptFilters(c)

	attempts, total, err := h.attemptService.List(c.Request.Context(), filters, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: attempts, Total: total})
}

// RecordViolation records an anti-cheat violation
// @Summary Record violation
// @Description Records a violation against an in-progress attempt; the third violation force-submits it
// @Tags violations
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param violation body services.RecordViolationRequest true "Violation data"
// @Success 201 {object} services.ViolationResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/violations [post]
func (h *AttemptHandler) RecordViolation(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.RecordViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Recording violation", "attempt_id", attemptID, "type", req.Type)

	violation, err := h.violationService.Record(c.Request.Context(), attemptID, &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, violation)
}

// ListViolations returns an attempt's violations
// @Summary List violations
// @Tags violations
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} ListResponse
// @Router /attempts/{id}/violations [get]
func (h *AttemptHandler) ListViolations(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	violations, err := h.violationService.List(c.Request.Context(), attemptID, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: violations, Total: int64(len(violations))})
}

func parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	filters := repositories.AttemptFilters{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		s := models.AttemptStatus(status)
		filters.Status = &s
	}
	if examID, err := strconv.ParseUint(c.Query("exam_id"), 10, 32); err == nil && examID > 0 {
		id := uint(examID)
		filters.ExamID = &id
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}
	return filters
}
