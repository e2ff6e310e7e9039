package schedule

import (
	"errors"
	"net/http"

	"classbook/internal/api"
	"classbook/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Create a session template
// @Description  Admin-only: define a weekly recurring class
// @Tags         admin,templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.CreateTemplateRequest true "Template payload"
// @Success      201 {object} schedule.Template
// @Failure      400 {object} api.ValidationErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/templates [post]
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	tpl, err := h.service.CreateTemplate(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidTemplate) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		logger.WithError(err).Error("create template failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create template"})
		return
	}

	logger.Info("template created", "template_id", tpl.ID, "day", tpl.DayOfWeek.String(), "start", tpl.StartTime)
	c.JSON(http.StatusCreated, tpl)
}

// @Summary      List session templates
// @Description  Weekly timetable, Monday first, then by start time
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} schedule.Template
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /templates [get]
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("list templates failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch templates"})
		return
	}

	c.JSON(http.StatusOK, templates)
}

// @Summary      Get a session template
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path string true "Template ID" format(uuid)
// @Success      200 {object} schedule.Template
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /templates/{templateID} [get]
func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := TemplateIDParam(c)
	if !ok {
		return
	}

	tpl, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Template not found"})
			return
		}
		logger.WithError(err).Error("get template failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch template"})
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// TemplateIDParam parses the :templateID path parameter, writing a 400 on failure.
func TemplateIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("templateID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid template ID"})
		return uuid.Nil, false
	}
	return id, true
}
