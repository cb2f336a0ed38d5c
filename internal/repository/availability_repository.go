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

// AvailabilityRepository manages persistence for availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create inserts a window after verifying it does not overlap any window
// owned by the same professor. Scan and insert run in one serializable
// transaction so two concurrent creates cannot both pass the overlap check;
// a serialization conflict is retried once before being surfaced.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.createOnce(ctx, window)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("create availability window: %w", err)
}

func (r *AvailabilityRepository) createOnce(ctx context.Context, window *models.AvailabilityWindow) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin create window: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const overlapQuery = `SELECT 1 FROM availability_windows
		WHERE professor_id = $1 AND start_time < $3 AND end_time > $2 LIMIT 1`
	var clash int
	err = tx.GetContext(ctx, &clash, overlapQuery, window.ProfessorID, window.StartTime, window.EndTime)
	if err == nil {
		return ErrOverlap
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("scan for overlap: %w", err)
	}

	const insertQuery = `INSERT INTO availability_windows (id, professor_id, start_time, end_time, booked, booked_by, created_at, updated_at)
		VALUES (:id, :professor_id, :start_time, :end_time, :booked, :booked_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, window); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// FindByID fetches a window by ID.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	const query = `SELECT id, professor_id, start_time, end_time, booked, booked_by, created_at, updated_at
		FROM availability_windows WHERE id = $1`
	var window models.AvailabilityWindow
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// ListFree returns a professor's unbooked windows starting after the given
// cutoff, ordered by start time ascending.
func (r *AvailabilityRepository) ListFree(ctx context.Context, professorID string, after time.Time) ([]models.AvailabilityWindow, error) {
	const query = `SELECT id, professor_id, start_time, end_time, booked, booked_by, created_at, updated_at
		FROM availability_windows
		WHERE professor_id = $1 AND booked = FALSE AND start_time > $2
		ORDER BY start_time ASC`
	windows := []models.AvailabilityWindow{}
	if err := r.db.SelectContext(ctx, &windows, query, professorID, after); err != nil {
		return nil, fmt.Errorf("list free windows: %w", err)
	}
	return windows, nil
}

// ListByOwner returns all of a professor's windows regardless of booking
// state, ascending by start time, with the booker resolved when booked.
func (r *AvailabilityRepository) ListByOwner(ctx context.Context, professorID string) ([]models.OwnedWindow, error) {
	const query = `SELECT w.id, w.professor_id, w.start_time, w.end_time, w.booked, w.booked_by, w.created_at, w.updated_at,
			u.full_name AS booker_name, u.email AS booker_email
		FROM availability_windows w
		LEFT JOIN users u ON u.id = w.booked_by
		WHERE w.professor_id = $1
		ORDER BY w.start_time ASC`
	windows := []models.OwnedWindow{}
	if err := r.db.SelectContext(ctx, &windows, query, professorID); err != nil {
		return nil, fmt.Errorf("list owned windows: %w", err)
	}
	return windows, nil
}

// DeleteFree removes a window only while it is unbooked and owned by the
// caller. It reports whether a row was actually deleted.
func (r *AvailabilityRepository) DeleteFree(ctx context.Context, id, professorID string) (bool, error) {
	const query = `DELETE FROM availability_windows WHERE id = $1 AND professor_id = $2 AND booked = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, professorID)
	if err != nil {
		return false, fmt.Errorf("delete window: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete window rows: %w", err)
	}
	return rows > 0, nil
}
