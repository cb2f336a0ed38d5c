package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/internal/repository"
	appErrors "github.com/campusbook/appointment-api/pkg/errors"
)

// mockBookingStore mimics the conditional window flip and appointment writes
// with an in-memory map guarded by a mutex.
type mockBookingStore struct {
	mu      sync.Mutex
	windows map[string]*models.AvailabilityWindow
	appts   map[string]*models.Appointment
}

func newMockBookingStore(windows ...*models.AvailabilityWindow) *mockBookingStore {
	s := &mockBookingStore{
		windows: make(map[string]*models.AvailabilityWindow),
		appts:   make(map[string]*models.Appointment),
	}
	for _, w := range windows {
		s.windows[w.ID] = w
	}
	return s
}

func (s *mockBookingStore) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *w
	return &copied, nil
}

func (s *mockBookingStore) Book(ctx context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[appt.WindowID]
	if !ok || w.Booked {
		return repository.ErrWindowTaken
	}
	w.Booked = true
	w.BookedBy = &appt.StudentID
	appt.ID = uuid.NewString()
	copied := *appt
	s.appts[appt.ID] = &copied
	return nil
}

func (s *mockBookingStore) Cancel(ctx context.Context, apptID, professorID, reason string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[apptID]
	if !ok || a.ProfessorID != professorID || a.Status != models.AppointmentScheduled {
		return nil, sql.ErrNoRows
	}
	a.Status = models.AppointmentCancelled
	a.CancelledBy = &professorID
	a.CancellationReason = &reason
	if w, ok := s.windows[a.WindowID]; ok {
		w.Booked = false
		w.BookedBy = nil
	}
	copied := *a
	return &copied, nil
}

func (s *mockBookingStore) ListByStudent(ctx context.Context, studentID string) ([]models.AppointmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AppointmentDetail
	for _, a := range s.appts {
		if a.StudentID == studentID {
			out = append(out, models.AppointmentDetail{Appointment: *a})
		}
	}
	return out, nil
}

func (s *mockBookingStore) ListByProfessor(ctx context.Context, professorID string) ([]models.AppointmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AppointmentDetail
	for _, a := range s.appts {
		if a.ProfessorID == professorID {
			out = append(out, models.AppointmentDetail{Appointment: *a})
		}
	}
	return out, nil
}

func newBookingService(store *mockBookingStore, cache availabilityCache, now time.Time) *BookingService {
	svc := NewBookingService(store, store, cache, validator.New(), zap.NewNop(), nil)
	svc.now = func() time.Time { return now }
	return svc
}

func futureWindow(professorID string, start time.Time) *models.AvailabilityWindow {
	return &models.AvailabilityWindow{
		ID:          uuid.NewString(),
		ProfessorID: professorID,
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
	}
}

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func TestBookAppointment(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	cache := newMockCache()
	svc := newBookingService(store, cache, testNow)

	appt, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.Equal(t, "stu-1", appt.StudentID)
	assert.Equal(t, "prof-1", appt.ProfessorID)
	assert.Equal(t, window.StartTime, appt.AppointmentTime)
	assert.True(t, store.windows[window.ID].Booked)
	assert.Contains(t, cache.deleted, freeWindowsKey("prof-1"))
}

func TestBookAndCancelWithoutCache(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	svc := newBookingService(store, nil, testNow)

	appt, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), professorClaims(), appt.ID, CancelRequest{})
	require.NoError(t, err)
	assert.False(t, store.windows[window.ID].Booked)
}

func TestBookWindowNotFound(t *testing.T) {
	svc := newBookingService(newMockBookingStore(), nil, testNow)

	_, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: uuid.NewString()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookAlreadyBooked(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	window.Booked = true
	svc := newBookingService(newMockBookingStore(window), nil, testNow)

	_, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyBooked.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestBookPastSlot(t *testing.T) {
	past := futureWindow("prof-1", testNow.Add(-time.Hour))
	boundary := futureWindow("prof-1", testNow)
	svc := newBookingService(newMockBookingStore(past, boundary), nil, testNow)

	_, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: past.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastSlot.Code, appErrors.FromError(err).Code)

	// A window starting exactly now is no longer bookable.
	_, err = svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: boundary.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastSlot.Code, appErrors.FromError(err).Code)
}

func TestBookValidation(t *testing.T) {
	svc := newBookingService(newMockBookingStore(), nil, testNow)

	_, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: "not-a-uuid"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookRequiresStudent(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	svc := newBookingService(newMockBookingStore(window), nil, testNow)

	_, err := svc.Book(context.Background(), professorClaims(), BookRequest{AvailabilityID: window.ID})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Book(context.Background(), nil, BookRequest{AvailabilityID: window.ID})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	svc := newBookingService(store, nil, testNow)

	const attempts = 16
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			actor := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleStudent}
			_, err := svc.Book(context.Background(), actor, BookRequest{AvailabilityID: window.ID})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		require.Equal(t, appErrors.ErrAlreadyBooked.Code, appErrors.FromError(err).Code)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, store.appts, 1)
}

func TestCancelDefaultsReason(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	svc := newBookingService(store, newMockCache(), testNow)

	appt, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), professorClaims(), appt.ID, CancelRequest{Reason: "   "})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, DefaultCancellationReason, *cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, "prof-1", *cancelled.CancelledBy)
	assert.False(t, store.windows[window.ID].Booked)
}

func TestCancelTwice(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	svc := newBookingService(store, nil, testNow)

	appt, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), professorClaims(), appt.ID, CancelRequest{})
	require.NoError(t, err)

	// The second cancellation sees no SCHEDULED row.
	_, err = svc.Cancel(context.Background(), professorClaims(), appt.ID, CancelRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCancelForeignAppointment(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	svc := newBookingService(store, nil, testNow)

	appt, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)

	other := &models.JWTClaims{UserID: "prof-2", Role: models.RoleProfessor}
	_, err = svc.Cancel(context.Background(), other, appt.ID, CancelRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRebookAfterCancel(t *testing.T) {
	window := futureWindow("prof-1", testNow.Add(time.Hour))
	store := newMockBookingStore(window)
	svc := newBookingService(store, nil, testNow)

	first, err := svc.Book(context.Background(), studentClaims(), BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), professorClaims(), first.ID, CancelRequest{Reason: "schedule change"})
	require.NoError(t, err)

	// The released window is bookable again, by a different student too.
	other := &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent}
	second, err := svc.Book(context.Background(), other, BookRequest{AvailabilityID: window.ID})
	require.NoError(t, err)
	assert.Equal(t, "stu-2", second.StudentID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, store.windows[window.ID].Booked)
}

func TestListAppointmentsRoles(t *testing.T) {
	store := newMockBookingStore()
	svc := newBookingService(store, nil, testNow)

	_, err := svc.ListForStudent(context.Background(), professorClaims())
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.ListForProfessor(context.Background(), studentClaims())
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	appts, err := svc.ListForStudent(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Empty(t, appts)
}
