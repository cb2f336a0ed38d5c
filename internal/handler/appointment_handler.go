package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusbook/appointment-api/internal/middleware"
	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/internal/service"
	appErrors "github.com/campusbook/appointment-api/pkg/errors"
	"github.com/campusbook/appointment-api/pkg/response"
)

type bookingService interface {
	Book(ctx context.Context, actor *models.JWTClaims, req service.BookRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, apptID string, req service.CancelRequest) (*models.Appointment, error)
	ListForStudent(ctx context.Context, actor *models.JWTClaims) ([]models.AppointmentDetail, error)
	ListForProfessor(ctx context.Context, actor *models.JWTClaims) ([]models.AppointmentDetail, error)
}

type exportService interface {
	Schedule(ctx context.Context, actor *models.JWTClaims, format service.ExportFormat) (*service.ExportResult, error)
}

// AppointmentHandler wires appointment routes to the booking service.
type AppointmentHandler struct {
	bookings bookingService
	exports  exportService
}

// NewAppointmentHandler constructs an AppointmentHandler.
func NewAppointmentHandler(bookings bookingService, exports exportService) *AppointmentHandler {
	return &AppointmentHandler{bookings: bookings, exports: exports}
}

// Book godoc
// @Summary Book an availability window
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BookRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/book [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req service.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	appt, err := h.bookings.Book(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param payload body service.CancelRequest false "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id}/cancel [put]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	var req service.CancelRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancellation payload"))
			return
		}
	}

	appt, err := h.bookings.Cancel(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt)
}

// ListMine godoc
// @Summary List own appointments (student)
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments/my-appointments [get]
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	appts, err := h.bookings.ListForStudent(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appts, map[string]interface{}{"count": len(appts)})
}

// ListForProfessor godoc
// @Summary List own appointments (professor)
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /appointments/professor-appointments [get]
func (h *AppointmentHandler) ListForProfessor(c *gin.Context) {
	appts, err := h.bookings.ListForProfessor(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appts, map[string]interface{}{"count": len(appts)})
}

// Export godoc
// @Summary Export own appointment schedule
// @Tags Appointments
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /appointments/export [get]
func (h *AppointmentHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))

	result, err := h.exports.Schedule(c.Request.Context(), middleware.CurrentUser(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
