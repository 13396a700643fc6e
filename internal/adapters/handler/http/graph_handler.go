package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucagrillo/habitgrid/internal/adapters/handler/http/middleware"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/services"
)

const maxGraphRangeDays = 366

// GraphHandler serves the consistency graph views: the per-habit cell
// strip, the agenda for a single day and the aggregate overview.
type GraphHandler struct {
	svc        *services.GraphService
	reschedule *services.RescheduleService
}

func NewGraphHandler(svc *services.GraphService, reschedule *services.RescheduleService) *GraphHandler {
	return &GraphHandler{
		svc:        svc,
		reschedule: reschedule,
	}
}

type rescheduleRequest struct {
	From    string `json:"from"`
	Version int    `json:"version"`
	Preview bool   `json:"preview"`
}

func (h *GraphHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/habits/:id/graph", h.GetGraph)
	r.POST("/habits/:id/reschedule", h.Reschedule)
	r.GET("/agenda", h.GetAgenda)
	r.GET("/overview", h.GetOverview)
}

// parseDateRange reads optional start/end query params in YYYY-MM-DD form.
// Zero values mean "let the service pick its default window".
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var start, end time.Time
	var err error

	if s := c.Query("start"); s != "" {
		start, err = time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start format, expected YYYY-MM-DD"})
			return start, end, false
		}
	}
	if e := c.Query("end"); e != "" {
		end, err = time.Parse("2006-01-02", e)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end format, expected YYYY-MM-DD"})
			return start, end, false
		}
	}

	if !start.IsZero() && !end.IsZero() {
		if start.After(end) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start cannot be after end"})
			return start, end, false
		}
		if end.Sub(start).Hours()/24 > maxGraphRangeDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date range too large, max 1 year allowed"})
			return start, end, false
		}
	}

	return start, end, true
}

func (h *GraphHandler) GetGraph(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	view, err := h.svc.BuildGraph(c.Request.Context(), services.GraphInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Start:   start,
		End:     end,
	})
	if err != nil {
		// Another user's habit answers like a missing one.
		if errors.Is(err, domain.ErrHabitNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build graph"})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *GraphHandler) GetAgenda(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	on := time.Now().UTC()
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY-MM-DD"})
			return
		}
		on = parsed
	}

	items, err := h.svc.Agenda(c.Request.Context(), userID, on)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build agenda"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  on.Format("2006-01-02"),
		"items": items,
	})
}

func (h *GraphHandler) GetOverview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	overview, err := h.svc.GetOverview(c.Request.Context(), userID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build overview"})
		return
	}

	c.JSON(http.StatusOK, overview)
}

func (h *GraphHandler) Reschedule(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	from := time.Now().UTC()
	if req.From != "" {
		parsed, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from format, expected YYYY-MM-DD"})
			return
		}
		from = parsed
	}

	input := services.RescheduleInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		From:    from,
		Version: req.Version,
	}

	var (
		result *services.RescheduleResult
		err    error
	)
	if req.Preview {
		result, err = h.reschedule.Preview(c.Request.Context(), input)
	} else {
		result, err = h.reschedule.Apply(c.Request.Context(), input)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrHabitNotFound), errors.Is(err, domain.ErrUnauthorized):
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
		case errors.Is(err, domain.ErrHabitConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "version conflict",
				"message": "Data has been modified elsewhere. Please sync.",
			})
		case errors.Is(err, domain.ErrInvalidSchedule):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
