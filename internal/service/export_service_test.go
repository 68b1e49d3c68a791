package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/export"
)

func approvedDetail() *models.ApplicationDetail {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	roll := "731221IT001"
	ts := now
	return &models.ApplicationDetail{
		Application: models.Application{
			ID:                     "app-1",
			StudentID:              "student-1",
			CourseID:               "course-1",
			ApplicationType:        models.TypeRetest,
			Reason:                 "medical, with a comma",
			Status:                 models.StatusApprovedByCoe,
			ClassTeacherApprovedAt: &ts,
			FacultyApprovedAt:      &ts,
			HodApprovedAt:          &ts,
			CoeApprovedAt:          &ts,
			CreatedAt:              now,
		},
		CourseCode:        "U23IT301",
		CourseName:        "Data Structures",
		CourseDepartment:  "IT",
		CourseSemester:    3,
		CourseSection:     "A",
		FacultyEmail:      "faculty@college.edu",
		ClassTeacherID:    "teacher-1",
		StudentName:       "A Student",
		StudentRollNumber: &roll,
	}
}

func coeProfile() *models.Profile {
	return &models.Profile{UserID: "coe-1", Email: "coe@college.edu", Role: models.RoleCoe}
}

func newExportFixture() (*ExportService, *appStoreStub, *auditStub) {
	apps := newAppStoreStub()
	audit := &auditStub{}
	svc := NewExportService(apps, export.NewCSVExporter(), export.NewPDFExporter(), audit, nil)
	return svc, apps, audit
}

func TestRenderCSV(t *testing.T) {
	svc, apps, audit := newExportFixture()
	apps.add(approvedDetail())

	result, err := svc.Render(context.Background(), coeProfile(), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "approved_applications_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Student Name")
	assert.Contains(t, lines[1], "A Student")
	assert.Contains(t, lines[1], "731221IT001")
	assert.Contains(t, lines[1], `"medical, with a comma"`)
	assert.Contains(t, lines[1], "2026-03-14")

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionExport, audit.logs[0].Action)
}

func TestRenderCSVExcludesUnapproved(t *testing.T) {
	svc, apps, _ := newExportFixture()
	pending := approvedDetail()
	pending.ID = "app-2"
	pending.Status = models.StatusApprovedByHod
	apps.add(pending)

	result, err := svc.Render(context.Background(), coeProfile(), "")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	assert.Len(t, lines, 1, "only the header when nothing is fully approved")
}

func TestRenderPDF(t *testing.T) {
	svc, apps, _ := newExportFixture()
	apps.add(approvedDetail())

	result, err := svc.Render(context.Background(), coeProfile(), ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Payload)
}

func TestRenderForbiddenForNonCoe(t *testing.T) {
	svc, _, _ := newExportFixture()
	hod := &models.Profile{UserID: "h1", Role: models.RoleHod}

	_, err := svc.Render(context.Background(), hod, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRenderUnknownFormat(t *testing.T) {
	svc, _, _ := newExportFixture()

	_, err := svc.Render(context.Background(), coeProfile(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
