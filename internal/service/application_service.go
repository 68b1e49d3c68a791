package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/workflow"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

// maxCoursesPerSubmission caps one student submission.
const maxCoursesPerSubmission = 7

type applicationStore interface {
	CreateBatch(ctx context.Context, apps []models.Application) error
	GetDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	ListDetails(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, error)
}

type courseReader interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
}

// ApplicationService handles submissions and visibility-filtered reads.
type ApplicationService struct {
	apps    applicationStore
	courses courseReader
	audit   auditLogger
	logger  *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(apps applicationStore, courses courseReader, audit auditLogger, logger *zap.Logger) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{apps: apps, courses: courses, audit: audit, logger: logger}
}

// Submit files one pending application per selected course in a single
// transaction. Every course must belong to the student's own cohort.
func (s *ApplicationService) Submit(ctx context.Context, student *models.Profile, req dto.SubmitApplicationsRequest) ([]models.Application, error) {
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit applications")
	}
	if student.IsFirstLogin {
		return nil, appErrors.ErrSetupRequired
	}
	if !models.ValidApplicationType(req.ApplicationType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application type must be retest or improvement")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a reason is required")
	}
	if len(req.CourseIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one course")
	}
	if len(req.CourseIDs) > maxCoursesPerSubmission {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at most 7 courses can be selected per submission")
	}

	apps := make([]models.Application, 0, len(req.CourseIDs))
	seen := make(map[string]struct{}, len(req.CourseIDs))
	for _, courseID := range req.CourseIDs {
		if _, dup := seen[courseID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate course in selection")
		}
		seen[courseID] = struct{}{}

		course, err := s.courses.GetByID(ctx, courseID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course: "+courseID)
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "course store unavailable")
		}
		if course.Department != student.DepartmentValue() ||
			course.Semester != student.SemesterValue() ||
			course.Section != student.SectionValue() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course "+course.CourseCode+" is outside your department, semester or section")
		}

		apps = append(apps, models.Application{
			StudentID:       student.UserID,
			CourseID:        course.ID,
			ApplicationType: req.ApplicationType,
			Reason:          reason,
			Status:          models.StatusPending,
		})
	}

	if err := s.apps.CreateBatch(ctx, apps); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "application store unavailable")
	}

	if s.audit != nil {
		uid := student.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &uid,
			Action:   models.AuditActionApplicationSubmit,
			Resource: "application",
		}); err != nil {
			s.logger.Warn("failed to record submission audit", zap.Error(err))
		}
	}

	s.logger.Info("applications submitted",
		zap.String("student_id", student.UserID),
		zap.String("type", string(req.ApplicationType)),
		zap.Int("count", len(apps)))
	return apps, nil
}

// ListVisible returns the applications the viewer is allowed to see,
// with the role's visibility rule pushed into the query.
func (s *ApplicationService) ListVisible(ctx context.Context, viewer *models.Profile, limit, offset int) ([]models.ApplicationDetail, error) {
	filter := models.ApplicationFilter{Limit: limit, Offset: offset}
	switch viewer.Role {
	case models.RoleStudent:
		filter.StudentID = viewer.UserID
	case models.RoleClassTeacher:
		filter.ClassTeacherID = viewer.UserID
	case models.RoleFaculty:
		filter.FacultyEmail = viewer.Email
		filter.MinStatusRank = workflow.MinStagesForViewer(models.RoleFaculty)
	case models.RoleHod:
		if viewer.DepartmentValue() == "" {
			return nil, appErrors.ErrSetupRequired
		}
		filter.Department = viewer.DepartmentValue()
		filter.MinStatusRank = workflow.MinStagesForViewer(models.RoleHod)
	case models.RoleCoe:
		filter.MinStatusRank = workflow.MinStagesForViewer(models.RoleCoe)
	default:
		return nil, appErrors.ErrForbidden
	}

	details, err := s.apps.ListDetails(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "application store unavailable")
	}
	return details, nil
}

// Get returns a single application when the viewer may see it; rows
// outside the viewer's visibility read as not found.
func (s *ApplicationService) Get(ctx context.Context, viewer *models.Profile, id string) (*models.ApplicationDetail, error) {
	detail, err := s.apps.GetDetailByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "application store unavailable")
	}
	if !workflow.Visible(viewer, *detail) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return detail, nil
}
