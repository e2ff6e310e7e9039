package booking

import (
	"errors"
	"net/http"
	"strconv"

	"classbook/internal/api"
	"classbook/internal/auth"
	"classbook/internal/logger"
	"classbook/internal/schedule"

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

// @Summary      Book a class
// @Description  Reserves one seat in the class occurrence on the given date
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.BookRequest true "Occurrence to book"
// @Success      201 {object} booking.Reservation
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /reservations [post]
func (h *Handler) Book(c *gin.Context) {
	member, ok := memberFromContext(c)
	if !ok {
		return
	}

	var req BookRequest
	if !api.BindJSON(c, &req) {
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid template ID"})
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.Book(c.Request.Context(), member, templateID, date)
	if err != nil {
		respondError(c, err, "Failed to book class")
		return
	}

	c.JSON(http.StatusCreated, res)
}

// @Summary      Cancel a reservation
// @Description  Releases the caller's own seat
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        reservationID path string true "Reservation ID" format(uuid)
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /reservations/{reservationID} [delete]
func (h *Handler) Cancel(c *gin.Context) {
	member, ok := memberFromContext(c)
	if !ok {
		return
	}

	reservationID, err := uuid.Parse(c.Param("reservationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid reservation ID"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), member, reservationID); err != nil {
		respondError(c, err, "Failed to cancel reservation")
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Reservation cancelled successfully"})
}

// @Summary      List my reservations
// @Description  Ordered by class date, newest booking first within a date
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "active (default), cancelled or all"
// @Success      200 {array} booking.ReservationWithTemplate
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /reservations/me [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var status Status
	switch q := c.DefaultQuery("status", string(StatusActive)); q {
	case "all":
	case string(StatusActive), string(StatusCancelled):
		status = Status(q)
	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "status must be active, cancelled or all"})
		return
	}

	reservations, err := h.service.ListMyReservations(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err, "Failed to fetch reservations")
		return
	}

	c.JSON(http.StatusOK, reservations)
}

// @Summary      Occupancy of one occurrence
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path string true "Template ID" format(uuid)
// @Param        date query string true "Occurrence date (YYYY-MM-DD)"
// @Success      200 {object} booking.Occupancy
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /templates/{templateID}/occupancy [get]
func (h *Handler) GetOccupancy(c *gin.Context) {
	templateID, date, ok := occurrenceParams(c)
	if !ok {
		return
	}

	occ, err := h.service.GetOccupancy(c.Request.Context(), templateID, date)
	if err != nil {
		respondError(c, err, "Failed to fetch occupancy")
		return
	}

	c.JSON(http.StatusOK, occ)
}

// @Summary      Roster of one occurrence
// @Description  Admin-only: members holding a seat, earliest booking first
// @Tags         admin,templates
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path string true "Template ID" format(uuid)
// @Param        date query string true "Occurrence date (YYYY-MM-DD)"
// @Success      200 {array} booking.RosterEntry
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/templates/{templateID}/roster [get]
func (h *Handler) ListRoster(c *gin.Context) {
	templateID, date, ok := occurrenceParams(c)
	if !ok {
		return
	}

	roster, err := h.service.ListRoster(c.Request.Context(), templateID, date)
	if err != nil {
		respondError(c, err, "Failed to fetch roster")
		return
	}

	c.JSON(http.StatusOK, roster)
}

// @Summary      Rolling class calendar
// @Description  Occurrences from today with their occupancy
// @Tags         templates
// @Produce      json
// @Security     BearerAuth
// @Param        days query int false "Window length in days (default 7, max 28)"
// @Success      200 {array} booking.CalendarEntry
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /calendar [get]
func (h *Handler) Calendar(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxCalendarDays {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "days must be between 1 and 28"})
			return
		}
		days = n
	}

	entries, err := h.service.Calendar(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, "Failed to build calendar")
		return
	}

	c.JSON(http.StatusOK, entries)
}

// @Summary      Delete a session template
// @Description  Admin-only: retires the class and cancels its reservations from today on
// @Tags         admin,templates
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path string true "Template ID" format(uuid)
// @Success      200 {object} booking.RetireResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /admin/templates/{templateID} [delete]
func (h *Handler) DeleteTemplate(c *gin.Context) {
	templateID, ok := schedule.TemplateIDParam(c)
	if !ok {
		return
	}

	cancelled, err := h.service.DeleteTemplate(c.Request.Context(), templateID)
	if err != nil {
		respondError(c, err, "Failed to delete template")
		return
	}

	c.JSON(http.StatusOK, RetireResponse{TemplateID: templateID, Cancelled: cancelled})
}

func occurrenceParams(c *gin.Context) (uuid.UUID, schedule.Date, bool) {
	templateID, ok := schedule.TemplateIDParam(c)
	if !ok {
		return uuid.Nil, schedule.Date{}, false
	}

	date, err := schedule.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date query parameter must be YYYY-MM-DD"})
		return uuid.Nil, schedule.Date{}, false
	}
	return templateID, date, true
}

func memberFromContext(c *gin.Context) (Member, bool) {
	id, ok := auth.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return Member{}, false
	}
	return Member{UserID: id.UserID, Gender: schedule.Gender(id.Gender), Email: id.Email}, true
}

// respondError maps domain errors to HTTP statuses. Unknown errors are logged and hidden.
func respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrTemplateNotFound), errors.Is(err, ErrReservationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidMember):
		status = http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrAlreadyBooked), errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrAlreadyCancelled):
		status = http.StatusConflict
	case errors.Is(err, ErrEligibilityMismatch), errors.Is(err, ErrInvalidOccurrence):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrTransient):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		logger.WithError(err).Error(fallback, "path", c.FullPath())
		c.JSON(status, api.ErrorResponse{Error: fallback})
		return
	}
	c.JSON(status, api.ErrorResponse{Error: err.Error()})
}
