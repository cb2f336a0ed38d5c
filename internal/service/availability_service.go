package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/internal/repository"
	appErrors "github.com/campusbook/appointment-api/pkg/errors"
)

type availabilityRepository interface {
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	ListFree(ctx context.Context, professorID string, after time.Time) ([]models.AvailabilityWindow, error)
	ListByOwner(ctx context.Context, professorID string) ([]models.OwnedWindow, error)
	DeleteFree(ctx context.Context, id, professorID string) (bool, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CreateWindowRequest represents the payload for publishing a time window.
type CreateWindowRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

// AvailabilityService manages professors' free time windows and enforces the
// non-overlap invariant.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     availabilityCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
	metrics   *MetricsService
	now       func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, cache availabilityCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration, metrics *MetricsService) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		now:       time.Now,
	}
}

func freeWindowsKey(professorID string) string {
	return fmt.Sprintf("availability:free:%s", professorID)
}

// Create publishes a new window for the calling professor. The interval must
// be non-empty and must not intersect any existing window of the professor.
func (s *AvailabilityService) Create(ctx context.Context, actor *models.JWTClaims, req CreateWindowRequest) (*models.AvailabilityWindow, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, appErrors.ErrInvalidRange
	}

	window := &models.AvailabilityWindow{
		ProfessorID: actor.UserID,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Booked:      false,
	}
	if err := s.repo.Create(ctx, window); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, appErrors.ErrOverlapConflict
		}
		if repository.IsUnavailable(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability window")
	}

	s.invalidate(ctx, actor.UserID)
	return window, nil
}

// ListFree returns a professor's bookable windows: unbooked and starting in
// the future, ascending. Results are cached briefly per professor.
func (s *AvailabilityService) ListFree(ctx context.Context, actor *models.JWTClaims, professorID string) ([]models.AvailabilityWindow, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	key := freeWindowsKey(professorID)
	if s.cache != nil {
		var cached []models.AvailabilityWindow
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	queryStart := time.Now()
	windows, err := s.repo.ListFree(ctx, professorID, s.now().UTC())
	s.metrics.ObserveDBQuery("list_free_windows", time.Since(queryStart))
	if err != nil {
		if repository.IsUnavailable(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, windows, s.cacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return windows, nil
}

// ListOwn returns all windows of the calling professor with the booking
// student resolved where applicable.
func (s *AvailabilityService) ListOwn(ctx context.Context, actor *models.JWTClaims) ([]models.OwnedWindow, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	windows, err := s.repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list own availability")
	}
	return windows, nil
}

// Delete removes one of the caller's unbooked windows. Missing and foreign
// windows are both reported as not found; booked windows cannot be deleted.
func (s *AvailabilityService) Delete(ctx context.Context, actor *models.JWTClaims, windowID string) error {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return err
	}

	window, err := s.repo.FindByID(ctx, windowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load window")
	}
	if window.ProfessorID != actor.UserID {
		return appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
	}
	if window.Booked {
		return appErrors.ErrWindowBooked
	}

	deleted, err := s.repo.DeleteFree(ctx, windowID, actor.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete window")
	}
	if !deleted {
		// The window was booked or removed between the read and the delete.
		return appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
	}

	s.invalidate(ctx, actor.UserID)
	return nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, professorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, freeWindowsKey(professorID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func requireRole(actor *models.JWTClaims, role models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != role {
		return appErrors.ErrForbidden
	}
	return nil
}
