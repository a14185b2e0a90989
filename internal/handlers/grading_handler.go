package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumina-edu/exam-service/internal/services"
	"github.com/lumina-edu/exam-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(
	gradingService services.GradingService,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAnswer records a manual score for one answer
// @Summary Grade answer
// @Description Manually grades an answer on a submitted attempt; allowed until score publication
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param question_id path uint true "Question ID"
// @Param grade body services.GradeAnswerRequest true "Grading data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers/{question_id}/grade [post]
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	var req services.GradeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Grading answer", "attempt_id", attemptID, "question_id", questionID)

	err := h.gradingService.GradeAnswer(c.Request.Context(), attemptID, questionID, &req, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer graded"})
}

// PublishScore finalizes and releases an attempt's score
// @Summary Publish score
// @Description Sets the final score and releases results to the student
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param publication body services.PublishScoreRequest true "Final score data"
// @Success 200 {object} services.AttemptSummaryResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/publish-score [post]
func (h *GradingHandler) PublishScore(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.PublishScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Publishing attempt score", "attempt_id", attemptID)

	summary, err := h.gradingService.PublishScore(c.Request.Context(), attemptID, &req, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetResults returns the detailed outcome of an attempt
// @Summary Get attempt results
// @Description Students see results only after publication; exam authors and admins see them anytime
// @Tags grading
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResultsResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/results [get]
func (h *GradingHandler) GetResults(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	results, err := h.gradingService.GetResults(c.Request.Context(), attemptID, CurrentUserID(c), CurrentUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
