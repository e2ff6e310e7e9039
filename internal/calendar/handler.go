package calendar

import (
	"context"
	"net/http"
	"time"

	"classbook/internal/api"
	"classbook/internal/logger"
	"classbook/internal/schedule"

	"github.com/gin-gonic/gin"
)

type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]schedule.Template, error)
}

type Handler struct {
	templates TemplateLister
	loc       *time.Location
	now       func() time.Time
}

func NewHandler(templates TemplateLister, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{templates: templates, loc: loc, now: time.Now}
}

// @Summary      Timetable feed
// @Description  iCalendar export of every class as a weekly recurring event
// @Tags         templates
// @Produce      text/calendar
// @Success      200 {string} string "VCALENDAR"
// @Failure      500 {object} api.ErrorResponse
// @Router       /calendar.ics [get]
func (h *Handler) Feed(c *gin.Context) {
	templates, err := h.templates.ListTemplates(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("Failed to list templates for feed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to build calendar feed"})
		return
	}

	now := h.now()
	cal, err := Feed(templates, schedule.Today(now, h.loc), h.loc, now)
	if err != nil {
		logger.WithError(err).Error("Failed to build calendar feed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to build calendar feed"})
		return
	}

	c.Header("Content-Disposition", `inline; filename="classes.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}
