package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusbook/appointment-api/internal/models"
)

// AppointmentRepository manages persistence for appointments, including the
// paired writes that keep appointments and windows consistent.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Book flips the window Free→Booked and inserts the appointment in one
// transaction. The flip is conditioned on the window still being free at
// write time; if another booking won the race the transaction aborts with
// ErrWindowTaken and nothing is persisted.
func (r *AppointmentRepository) Book(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const flipQuery = `UPDATE availability_windows
		SET booked = TRUE, booked_by = $2, updated_at = $3
		WHERE id = $1 AND booked = FALSE`
	res, err := tx.ExecContext(ctx, flipQuery, appt.WindowID, appt.StudentID, now)
	if err != nil {
		return fmt.Errorf("mark window booked: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark window booked rows: %w", err)
	}
	if rows == 0 {
		return ErrWindowTaken
	}

	const insertQuery = `INSERT INTO appointments (id, student_id, professor_id, window_id, appointment_time, status, created_at, updated_at)
		VALUES (:id, :student_id, :professor_id, :window_id, :appointment_time, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, appt); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// Cancel moves a SCHEDULED appointment owned by the professor to CANCELLED
// and releases its window, both in one transaction. Ownership and status are
// enforced by the conditional update itself; sql.ErrNoRows is returned when
// no matching appointment exists, including the already-cancelled case.
func (r *AppointmentRepository) Cancel(ctx context.Context, apptID, professorID, reason string) (*models.Appointment, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cancellation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const cancelQuery = `UPDATE appointments
		SET status = $3, cancelled_by = $2, cancellation_reason = $4, updated_at = $5
		WHERE id = $1 AND professor_id = $2 AND status = $6
		RETURNING id, student_id, professor_id, window_id, appointment_time, status, cancelled_by, cancellation_reason, created_at, updated_at`
	var appt models.Appointment
	err = tx.GetContext(ctx, &appt, cancelQuery,
		apptID, professorID, models.AppointmentCancelled, reason, now, models.AppointmentScheduled)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	const releaseQuery = `UPDATE availability_windows
		SET booked = FALSE, booked_by = NULL, updated_at = $2
		WHERE id = $1 AND booked = TRUE`
	if _, err := tx.ExecContext(ctx, releaseQuery, appt.WindowID, now); err != nil {
		return nil, fmt.Errorf("release window: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancellation: %w", err)
	}
	return &appt, nil
}

const appointmentDetailColumns = `a.id, a.student_id, a.professor_id, a.window_id, a.appointment_time, a.status,
		a.cancelled_by, a.cancellation_reason, a.created_at, a.updated_at,
		s.full_name AS student_name, s.email AS student_email,
		p.full_name AS professor_name, p.email AS professor_email, p.department`

// ListByStudent returns a student's appointments, newest first.
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AppointmentDetail, error) {
	query := `SELECT ` + appointmentDetailColumns + `
		FROM appointments a
		JOIN users s ON s.id = a.student_id
		JOIN users p ON p.id = a.professor_id
		WHERE a.student_id = $1
		ORDER BY a.appointment_time DESC`
	appts := []models.AppointmentDetail{}
	if err := r.db.SelectContext(ctx, &appts, query, studentID); err != nil {
		return nil, fmt.Errorf("list student appointments: %w", err)
	}
	return appts, nil
}

// ListByProfessor returns a professor's appointments, newest first.
func (r *AppointmentRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.AppointmentDetail, error) {
	query := `SELECT ` + appointmentDetailColumns + `
		FROM appointments a
		JOIN users s ON s.id = a.student_id
		JOIN users p ON p.id = a.professor_id
		WHERE a.professor_id = $1
		ORDER BY a.appointment_time DESC`
	appts := []models.AppointmentDetail{}
	if err := r.db.SelectContext(ctx, &appts, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor appointments: %w", err)
	}
	return appts, nil
}
