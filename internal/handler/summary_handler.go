package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitalbite/wearable-sync/internal/dto"
	"github.com/vitalbite/wearable-sync/internal/service"
)

const dateLayout = "2006-01-02"

// SummaryHandler serves the read-only summary views
type SummaryHandler struct {
	summaryService service.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaryService service.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
	}
}

// Today handles the single-day summary view
// @Summary Single-day health summary
// @Tags summary
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.DailySummary
// @Failure 400 {object} dto.ErrorResponse
// @Router /summary/today [get]
func (h *SummaryHandler) Today(c *gin.Context) {
	userID, date, ok := h.params(c, "date")
	if !ok {
		return
	}

	summary, err := h.summaryService.Today(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Weekly handles the weekly average view
// @Summary Weekly average health summary
// @Tags summary
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.WeeklySummary
// @Failure 400 {object} dto.ErrorResponse
// @Router /summary/weekly [get]
func (h *SummaryHandler) Weekly(c *gin.Context) {
	userID, end, ok := h.params(c, "end")
	if !ok {
		return
	}

	summary, err := h.summaryService.WeeklyAverage(c.Request.Context(), userID, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// params extracts and authorizes the user id plus the optional date parameter,
// defaulting to today
func (h *SummaryHandler) params(c *gin.Context, dateParam string) (string, time.Time, bool) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "user_id is required",
		})
		return "", time.Time{}, false
	}

	tokenUser, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "User ID not found in context",
		})
		return "", time.Time{}, false
	}
	if tokenUser.(string) != userID {
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   "Forbidden",
			Message: "subject does not match authenticated user",
		})
		return "", time.Time{}, false
	}

	date := time.Now().UTC()
	if raw := c.Query(dateParam); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Validation failed",
				Message: dateParam + " must be formatted as YYYY-MM-DD",
			})
			return "", time.Time{}, false
		}
		date = parsed
	}

	return userID, date, true
}
