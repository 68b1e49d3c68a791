package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type approvedReader interface {
	ListApprovedDetails(ctx context.Context) ([]models.ApplicationDetail, error)
}

// ExportResult carries a rendered export payload.
type ExportResult struct {
	Payload     []byte
	Filename    string
	ContentType string
}

// ExportService projects fully approved applications into downloadable
// files. Every render re-queries the store; nothing is cached.
type ExportService struct {
	apps   approvedReader
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	audit  auditLogger
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(apps approvedReader, csv *export.CSVExporter, pdf *export.PDFExporter, audit auditLogger, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{apps: apps, csv: csv, pdf: pdf, audit: audit, logger: logger}
}

var exportHeaders = []string{
	"Student Name", "Roll Number", "Department", "Semester", "Section",
	"Course Code", "Course Name", "Type", "Reason", "Status", "Submitted Date",
}

// ProjectApproved builds the export dataset from the current set of
// fully approved applications.
func (s *ExportService) ProjectApproved(ctx context.Context) (export.Dataset, error) {
	details, err := s.apps.ListApprovedDetails(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "application store unavailable")
	}

	rows := make([]map[string]string, 0, len(details))
	for _, d := range details {
		rollNumber := ""
		if d.StudentRollNumber != nil {
			rollNumber = *d.StudentRollNumber
		}
		rows = append(rows, map[string]string{
			"Student Name":   d.StudentName,
			"Roll Number":    rollNumber,
			"Department":     d.CourseDepartment,
			"Semester":       strconv.Itoa(d.CourseSemester),
			"Section":        d.CourseSection,
			"Course Code":    d.CourseCode,
			"Course Name":    d.CourseName,
			"Type":           string(d.ApplicationType),
			"Reason":         d.Reason,
			"Status":         string(d.Status),
			"Submitted Date": d.CreatedAt.Format("2006-01-02"),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}

// Render produces the export in the requested format. Only the chief
// approver may export; format defaults to CSV.
func (s *ExportService) Render(ctx context.Context, actor *models.Profile, format string) (*ExportResult, error) {
	if actor.Role != models.RoleCoe {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the coe can export approved applications")
	}
	if format == "" {
		format = ExportFormatCSV
	}

	dataset, err := s.ProjectApproved(ctx)
	if err != nil {
		return nil, err
	}

	date := time.Now().UTC().Format("2006-01-02")
	var result *ExportResult
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv render failed")
		}
		result = &ExportResult{
			Payload:     payload,
			Filename:    fmt.Sprintf("approved_applications_%s.csv", date),
			ContentType: "text/csv",
		}
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Approved Applications")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf render failed")
		}
		result = &ExportResult{
			Payload:     payload,
			Filename:    fmt.Sprintf("approved_applications_%s.pdf", date),
			ContentType: "application/pdf",
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	if s.audit != nil {
		uid := actor.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &uid,
			Action:   models.AuditActionExport,
			Resource: "application",
		}); err != nil {
			s.logger.Warn("failed to record export audit", zap.Error(err))
		}
	}

	s.logger.Info("export rendered", zap.String("format", format), zap.Int("rows", len(dataset.Rows)))
	return result, nil
}
