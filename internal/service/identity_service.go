package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type identityProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	CompleteSetup(ctx context.Context, profile *models.Profile) error
}

type courseRegistrar interface {
	RegisterCourses(ctx context.Context, teacher *models.Profile, inputs []dto.CourseInput) ([]models.Course, error)
}

// IdentityService resolves principals and runs the one-shot first-login
// setup that fixes a profile's role and cohort.
type IdentityService struct {
	profiles identityProfileStore
	catalog  courseRegistrar
	audit    auditLogger

	// studentDomain locks accounts on this email domain to the student
	// role during setup; empty disables the policy.
	studentDomain string
	logger        *zap.Logger
}

// NewIdentityService constructs the service.
func NewIdentityService(profiles identityProfileStore, catalog courseRegistrar, audit auditLogger, studentDomain string, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{
		profiles:      profiles,
		catalog:       catalog,
		audit:         audit,
		studentDomain: studentDomain,
		logger:        logger,
	}
}

// Resolve returns the profile for a principal id.
func (s *IdentityService) Resolve(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "profile store unavailable")
	}
	return profile, nil
}

// CompleteSetup applies the mandatory first-login details exactly once.
// The chosen role becomes immutable afterwards. Class teachers may seed
// their cohort catalog in the same call.
func (s *IdentityService) CompleteSetup(ctx context.Context, userID string, req dto.SetupProfileRequest) (*models.Profile, error) {
	profile, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsFirstLogin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "profile setup is already complete")
	}
	if err := s.validateSetup(profile.Email, req); err != nil {
		return nil, err
	}

	updated := *profile
	updated.FullName = strings.TrimSpace(req.FullName)
	updated.Role = req.Role
	updated.Department = optionalString(req.Department)
	updated.Semester = optionalInt(req.Semester)
	updated.Section = optionalString(req.Section)
	updated.RollNumber = optionalString(req.RollNumber)

	if err := s.profiles.CompleteSetup(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race against another setup submission.
			return nil, appErrors.Clone(appErrors.ErrForbidden, "profile setup is already complete")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "profile store unavailable")
	}
	updated.IsFirstLogin = false

	if req.Role == models.RoleClassTeacher && len(req.Courses) > 0 {
		if _, err := s.catalog.RegisterCourses(ctx, &updated, req.Courses); err != nil {
			return nil, err
		}
	}

	if s.audit != nil {
		uid := updated.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &uid,
			Action:   models.AuditActionProfileSetup,
			Resource: "profile",
		}); err != nil {
			s.logger.Warn("failed to record setup audit", zap.Error(err))
		}
	}

	s.logger.Info("profile setup completed", zap.String("user_id", updated.UserID), zap.String("role", string(updated.Role)))
	return &updated, nil
}

// validateSetup checks the role claim and the cohort fields it demands.
func (s *IdentityService) validateSetup(email string, req dto.SetupProfileRequest) error {
	if !models.ValidRole(req.Role) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	onStudentDomain := s.studentDomain != "" && strings.HasSuffix(strings.ToLower(email), "@"+s.studentDomain)
	if onStudentDomain && req.Role != models.RoleStudent {
		s.logger.Warn("approver role claim from student domain refused", zap.String("email", email), zap.String("claimed_role", string(req.Role)))
		return appErrors.Clone(appErrors.ErrValidation, "accounts on the student email domain can only register as students")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "full name is required")
	}

	needsCohort := req.Role == models.RoleStudent || req.Role == models.RoleClassTeacher
	if needsCohort {
		if strings.TrimSpace(req.Department) == "" || req.Semester <= 0 || strings.TrimSpace(req.Section) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "department, semester and section are required")
		}
	}
	if req.Role == models.RoleStudent && strings.TrimSpace(req.RollNumber) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "roll number is required")
	}
	if req.Role == models.RoleHod && strings.TrimSpace(req.Department) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "department is required")
	}
	if len(req.Courses) > 0 && req.Role != models.RoleClassTeacher {
		return appErrors.Clone(appErrors.ErrValidation, "only class teachers can register courses during setup")
	}
	return nil
}

func optionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
