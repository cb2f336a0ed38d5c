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

type availabilityService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req service.CreateWindowRequest) (*models.AvailabilityWindow, error)
	ListFree(ctx context.Context, actor *models.JWTClaims, professorID string) ([]models.AvailabilityWindow, error)
	ListOwn(ctx context.Context, actor *models.JWTClaims) ([]models.OwnedWindow, error)
	Delete(ctx context.Context, actor *models.JWTClaims, windowID string) error
}

// AvailabilityHandler wires availability window routes to the service.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Create godoc
// @Summary Publish availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateWindowRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req service.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	window, err := h.service.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// ListByProfessor godoc
// @Summary List a professor's bookable windows
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param professorId path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /availability/professor/{professorId} [get]
func (h *AvailabilityHandler) ListByProfessor(c *gin.Context) {
	windows, err := h.service.ListFree(c.Request.Context(), middleware.CurrentUser(c), c.Param("professorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, map[string]interface{}{"count": len(windows)})
}

// ListOwn godoc
// @Summary List own availability windows
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /availability/my-availability [get]
func (h *AvailabilityHandler) ListOwn(c *gin.Context) {
	windows, err := h.service.ListOwn(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, map[string]interface{}{"count": len(windows)})
}

// Delete godoc
// @Summary Delete an unbooked availability window
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param id path string true "Window ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
