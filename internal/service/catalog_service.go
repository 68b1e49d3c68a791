package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/repository"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

// maxCoursesPerRegistration caps one class-teacher registration call.
const maxCoursesPerRegistration = 10

type courseStore interface {
	ListFor(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	CreateBatch(ctx context.Context, courses []models.Course) error
}

// CatalogService manages the per-cohort course catalog.
type CatalogService struct {
	courses courseStore
	audit   auditLogger
	logger  *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(courses courseStore, audit auditLogger, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, audit: audit, logger: logger}
}

// ListFor returns the catalog for one cohort, freshly queried.
func (s *CatalogService) ListFor(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	if strings.TrimSpace(filter.Department) == "" || filter.Semester <= 0 || strings.TrimSpace(filter.Section) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department, semester and section are required")
	}
	courses, err := s.courses.ListFor(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "course store unavailable")
	}
	return courses, nil
}

// RegisterCourses inserts catalog entries for the teacher's own cohort.
// The batch is all-or-nothing; a duplicate course code for the cohort
// fails the whole call with CONFLICT.
func (s *CatalogService) RegisterCourses(ctx context.Context, teacher *models.Profile, inputs []dto.CourseInput) ([]models.Course, error) {
	if teacher.Role != models.RoleClassTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only class teachers can register courses")
	}
	if teacher.DepartmentValue() == "" || teacher.SemesterValue() <= 0 || teacher.SectionValue() == "" {
		return nil, appErrors.ErrSetupRequired
	}
	if len(inputs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one course is required")
	}
	if len(inputs) > maxCoursesPerRegistration {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at most 10 courses can be registered at once")
	}

	courses := make([]models.Course, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		code := strings.TrimSpace(input.CourseCode)
		name := strings.TrimSpace(input.CourseName)
		facultyEmail := normalizeEmail(input.FacultyEmail)
		if code == "" || name == "" || facultyEmail == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "each course needs a code, a name and a faculty email")
		}
		if _, dup := seen[code]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate course code in request: "+code)
		}
		seen[code] = struct{}{}

		courses = append(courses, models.Course{
			CourseCode:     code,
			CourseName:     name,
			Department:     teacher.DepartmentValue(),
			Semester:       teacher.SemesterValue(),
			Section:        teacher.SectionValue(),
			FacultyEmail:   facultyEmail,
			ClassTeacherID: teacher.UserID,
		})
	}

	if err := s.courses.CreateBatch(ctx, courses); err != nil {
		if errors.Is(err, repository.ErrDuplicateCourse) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a course with the same code already exists for this cohort")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "course store unavailable")
	}

	if s.audit != nil {
		uid := teacher.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &uid,
			Action:   models.AuditActionCourseRegister,
			Resource: "course",
		}); err != nil {
			s.logger.Warn("failed to record course registration audit", zap.Error(err))
		}
	}

	s.logger.Info("courses registered",
		zap.String("class_teacher_id", teacher.UserID),
		zap.String("department", teacher.DepartmentValue()),
		zap.Int("count", len(courses)))
	return courses, nil
}
