package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucagrillo/habitgrid/internal/adapters/handler/http/middleware"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/services"
)

// CompletionHandler exposes the done-day log. Creating or deleting a
// completion also feeds the reschedule toggle tracker, so flipping a day
// done and back again can advance the habit's scheduled date.
type CompletionHandler struct {
	svc        *services.CompletionService
	reschedule *services.RescheduleService
}

func NewCompletionHandler(svc *services.CompletionService, reschedule *services.RescheduleService) *CompletionHandler {
	return &CompletionHandler{
		svc:        svc,
		reschedule: reschedule,
	}
}

type createCompletionRequest struct {
	HabitID     string    `json:"habit_id" binding:"required"`
	CompletedOn time.Time `json:"completed_on" binding:"required"`
	Notes       string    `json:"notes"`
}

type updateCompletionRequest struct {
	Notes   string `json:"notes"`
	Version int    `json:"version" binding:"required"`
}

func (h *CompletionHandler) RegisterRoutes(router *gin.RouterGroup) {
	completions := router.Group("/completions")
	{
		completions.POST("", h.Create)
		completions.GET("", h.ListByHabit)
		completions.GET("/sync", h.Sync)
		completions.PUT("/:id", h.Update)
		completions.DELETE("/:id", h.Delete)
	}
}

func (h *CompletionHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	input := services.CreateCompletionInput{
		HabitID:     req.HabitID,
		UserID:      userID,
		CompletedOn: req.CompletedOn,
		Notes:       req.Notes,
	}

	completion, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	rescheduled, err := h.reschedule.ObserveToggle(c.Request.Context(), req.HabitID, userID, true)
	if err != nil {
		// The completion is already saved; the toggle outcome is advisory.
		log.Printf("[WARN] reschedule toggle after create failed: %v", err)
	}

	if rescheduled != nil {
		c.JSON(http.StatusCreated, gin.H{
			"completion":  completion,
			"rescheduled": rescheduled,
		})
		return
	}

	c.JSON(http.StatusCreated, completion)
}

func (h *CompletionHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	id := c.Param("id")
	var req updateCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	input := services.UpdateCompletionInput{
		ID:      id,
		UserID:  userID,
		Notes:   req.Notes,
		Version: req.Version,
	}

	completion, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, completion)
}

func (h *CompletionHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	id := c.Param("id")

	// Resolved before the delete so the toggle tracker still learns
	// which habit the row belonged to.
	completion, err := h.svc.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, userID); err != nil {
		handleError(c, err)
		return
	}

	rescheduled, err := h.reschedule.ObserveToggle(c.Request.Context(), completion.HabitID, userID, false)
	if err != nil {
		log.Printf("[WARN] reschedule toggle after delete failed: %v", err)
	}

	if rescheduled != nil {
		c.JSON(http.StatusOK, gin.H{"rescheduled": rescheduled})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CompletionHandler) ListByHabit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	habitID := c.Query("habit_id")
	if habitID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "habit_id is required"})
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if t := c.Query("to"); t != "" {
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			to = parsed
		}
	}
	if f := c.Query("from"); f != "" {
		if parsed, err := time.Parse(time.RFC3339, f); err == nil {
			from = parsed
		}
	}

	list, err := h.svc.ListByHabitID(c.Request.Context(), habitID, userID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *CompletionHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	sinceStr := c.Query("since")
	var since time.Time

	if sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use RFC3339)"})
			return
		}
	}

	changes, err := h.svc.GetDelta(c.Request.Context(), userID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrCompletionNotFound) || errors.Is(err, domain.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrInvalidCompletion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrCompletionConflict) || errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please sync",
		})

	default:
		log.Printf("[ERROR] Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
