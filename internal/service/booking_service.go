package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/internal/repository"
	appErrors "github.com/campusbook/appointment-api/pkg/errors"
)

// DefaultCancellationReason is recorded when the professor gives none.
const DefaultCancellationReason = "Cancelled by professor"

type appointmentRepository interface {
	Book(ctx context.Context, appt *models.Appointment) error
	Cancel(ctx context.Context, apptID, professorID, reason string) (*models.Appointment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AppointmentDetail, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.AppointmentDetail, error)
}

type windowReader interface {
	FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
}

// BookRequest represents the payload for booking a window.
type BookRequest struct {
	AvailabilityID string `json:"availability_id" validate:"required,uuid4"`
}

// CancelRequest represents the payload for cancelling an appointment.
type CancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// BookingService transitions windows between Free and Booked while keeping
// appointments and windows consistent under concurrent requests.
type BookingService struct {
	appointments appointmentRepository
	windows      windowReader
	cache        availabilityCache
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      *MetricsService
	now          func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(appointments appointmentRepository, windows windowReader, cache availabilityCache, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		appointments: appointments,
		windows:      windows,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Book reserves a free future window for the calling student. The window
// flip and the appointment insert commit atomically; when several students
// race for the same window exactly one succeeds and the rest observe
// ALREADY_BOOKED.
func (s *BookingService) Book(ctx context.Context, actor *models.JWTClaims, req BookRequest) (*models.Appointment, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	window, err := s.windows.FindByID(ctx, req.AvailabilityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		if repository.IsUnavailable(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load window")
	}
	if window.Booked {
		s.recordBooking("conflict")
		return nil, appErrors.ErrAlreadyBooked
	}
	if !window.StartTime.After(s.now().UTC()) {
		s.recordBooking("rejected")
		return nil, appErrors.ErrPastSlot
	}

	appt := &models.Appointment{
		StudentID:       actor.UserID,
		ProfessorID:     window.ProfessorID,
		WindowID:        window.ID,
		AppointmentTime: window.StartTime,
		Status:          models.AppointmentScheduled,
	}
	queryStart := time.Now()
	err = s.appointments.Book(ctx, appt)
	s.metrics.ObserveDBQuery("book_appointment", time.Since(queryStart))
	if err != nil {
		if errors.Is(err, repository.ErrWindowTaken) {
			// Lost the race after the read: another booking committed first.
			s.recordBooking("conflict")
			return nil, appErrors.ErrAlreadyBooked
		}
		if repository.IsUnavailable(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book appointment")
	}

	s.recordBooking("scheduled")
	s.invalidate(ctx, window.ProfessorID)
	return appt, nil
}

// Cancel moves one of the caller's SCHEDULED appointments to CANCELLED and
// frees its window for re-booking. Foreign and already-cancelled appointments
// are indistinguishable: both report not found.
func (s *BookingService) Cancel(ctx context.Context, actor *models.JWTClaims, apptID string, req CancelRequest) (*models.Appointment, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultCancellationReason
	}

	queryStart := time.Now()
	appt, err := s.appointments.Cancel(ctx, apptID, actor.UserID, reason)
	s.metrics.ObserveDBQuery("cancel_appointment", time.Since(queryStart))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found or already cancelled")
		}
		if repository.IsUnavailable(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel appointment")
	}

	if s.metrics != nil {
		s.metrics.RecordCancellation()
	}
	s.invalidate(ctx, actor.UserID)
	return appt, nil
}

// ListForStudent returns the calling student's appointments, newest first.
func (s *BookingService) ListForStudent(ctx context.Context, actor *models.JWTClaims) ([]models.AppointmentDetail, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	appts, err := s.appointments.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appts, nil
}

// ListForProfessor returns the calling professor's appointments, newest first.
func (s *BookingService) ListForProfessor(ctx context.Context, actor *models.JWTClaims) ([]models.AppointmentDetail, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	appts, err := s.appointments.ListByProfessor(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appts, nil
}

func (s *BookingService) recordBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBooking(outcome)
	}
}

func (s *BookingService) invalidate(ctx context.Context, professorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, freeWindowsKey(professorID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}
