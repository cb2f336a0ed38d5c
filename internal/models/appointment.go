package models

import "time"

// AppointmentStatus enumerates the appointment state machine. SCHEDULED may
// transition to CANCELLED or COMPLETED; both are terminal.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
)

// Appointment is a confirmed reservation of an availability window by a
// student. Appointments are never deleted; cancellations keep the row as an
// audit record while the window is released for re-booking.
type Appointment struct {
	ID                 string            `db:"id" json:"id"`
	StudentID          string            `db:"student_id" json:"student_id"`
	ProfessorID        string            `db:"professor_id" json:"professor_id"`
	WindowID           string            `db:"window_id" json:"window_id"`
	AppointmentTime    time.Time         `db:"appointment_time" json:"appointment_time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	CancelledBy        *string           `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason *string           `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail decorates an appointment with counterpart identity fields
// for list responses.
type AppointmentDetail struct {
	Appointment
	StudentName    string  `db:"student_name" json:"student_name"`
	StudentEmail   string  `db:"student_email" json:"student_email"`
	ProfessorName  string  `db:"professor_name" json:"professor_name"`
	ProfessorEmail string  `db:"professor_email" json:"professor_email"`
	Department     *string `db:"department" json:"department,omitempty"`
}
