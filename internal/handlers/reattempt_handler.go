package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumina-edu/exam-service/internal/services"
	"github.com/lumina-edu/exam-service/internal/utils"
)

type ReAttemptHandler struct {
	BaseHandler
	reAttemptService services.ReAttemptService
}

func NewReAttemptHandler(
	reAttemptService services.ReAttemptService,
	logger utils.Logger,
) *ReAttemptHandler {
	return &ReAttemptHandler{
		BaseHandler:      NewBaseHandler(logger),
		reAttemptService: reAttemptService,
	}
}

// RequestReAttempt files a plea for one extra attempt
// @Summary Request re-attempt
// @Tags reattempts
// @Accept json
// @Produce json
// @Param request body services.ReAttemptRequestInput true "Request data"
// @Success 201 {object} models.ReAttemptRequest
// @Failure 409 {object} ErrorResponse
// @Router /reattempts [post]
func (h *ReAttemptHandler) RequestReAttempt(c *gin.Context) {
	var req services.ReAttemptRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Filing re-attempt request", "exam_id", req.ExamID)

	request, err := h.reAttemptService.Request(c.Request.Context(), &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ReviewReAttempt decides a pending re-attempt request
// @Summary Review re-attempt request
// @Description Exam creator approves or rejects a pending request; approval mints a single-use grant
// @Tags reattempts
// @Accept json
// @Produce json
// @Param id path uint true "Request ID"
// @Param review body services.ReviewReAttemptRequest true "Decision"
// @Success 200 {object} models.ReAttemptRequest
// @Failure 409 {object} ErrorResponse
// @Router /reattempts/{id}/review [post]
func (h *ReAttemptHandler) ReviewReAttempt(c *gin.Context) {
	requestID := h.parseIDParam(c, "id")
	if requestID == 0 {
		return
	}

	var req services.ReviewReAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Reviewing re-attempt request", "request_id", requestID, "approved", req.Approved)

	request, err := h.reAttemptService.Review(c.Request.Context(), requestID, &req, CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListPendingReAttempts returns the caller's pending review queue
// @Summary List pending re-attempt requests
// @Tags reattempts
// @Produce json
// @Success 200 {object} ListResponse
// @Router /reattempts/pending [get]
func (h *ReAttemptHandler) ListPendingReAttempts(c *gin.Context) {
	requests, err := h.reAttemptService.ListPending(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: requests, Total: int64(len(requests))})
}
