package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusbook/appointment-api/internal/models"
	"github.com/campusbook/appointment-api/pkg/export"
	appErrors "github.com/campusbook/appointment-api/pkg/errors"
)

// ExportFormat identifies a supported schedule export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus transport metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type appointmentLister interface {
	ListByProfessor(ctx context.Context, professorID string) ([]models.AppointmentDetail, error)
}

// ExportService renders a professor's appointment schedule as CSV or PDF.
type ExportService struct {
	appointments appointmentLister
	logger       *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(appointments appointmentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{appointments: appointments, logger: logger}
}

// Schedule builds the export document for the calling professor.
func (s *ExportService) Schedule(ctx context.Context, actor *models.JWTClaims, format ExportFormat) (*ExportResult, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}

	appts, err := s.appointments.ListByProfessor(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}

	table := export.Table{
		Columns: []string{"Time", "Student", "Email", "Status", "Cancellation Reason"},
		Rows:    make([][]string, 0, len(appts)),
	}
	for _, a := range appts {
		reason := ""
		if a.CancellationReason != nil {
			reason = *a.CancellationReason
		}
		table.Rows = append(table.Rows, []string{
			a.AppointmentTime.UTC().Format(time.RFC3339),
			a.StudentName,
			a.StudentEmail,
			string(a.Status),
			reason,
		})
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	switch format {
	case ExportCSV:
		content, err := export.CSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("appointments-%s.csv", stamp),
		}, nil
	case ExportPDF:
		content, err := export.PDF(table, "Appointment Schedule")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("appointments-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
