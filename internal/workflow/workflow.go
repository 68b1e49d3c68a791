// Package workflow implements the approval chain for retest and
// improvement applications: which role may act on an application in its
// current state, what the next state is, and who may see it. It is pure
// computation; persistence and serialization stay in the callers.
package workflow

import (
	"fmt"
	"time"

	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

// stageRank orders the forward chain. Rejected has no rank; how far a
// rejected application got is read from its timestamps.
var stageRank = map[models.ApplicationStatus]int{
	models.StatusPending:                0,
	models.StatusApprovedByClassTeacher: 1,
	models.StatusApprovedByFaculty:      2,
	models.StatusApprovedByHod:          3,
	models.StatusApprovedByCoe:          4,
}

// RequiredApprover returns the single role allowed to act on an
// application in the given status. ok is false for terminal statuses.
func RequiredApprover(status models.ApplicationStatus) (models.UserRole, bool) {
	switch status {
	case models.StatusPending:
		return models.RoleClassTeacher, true
	case models.StatusApprovedByClassTeacher:
		return models.RoleFaculty, true
	case models.StatusApprovedByFaculty:
		return models.RoleHod, true
	case models.StatusApprovedByHod:
		return models.RoleCoe, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transitions are permitted.
func Terminal(status models.ApplicationStatus) bool {
	return status == models.StatusApprovedByCoe || status == models.StatusRejected
}

// InScope reports whether the actor's ownership or department covers the
// course. The chief approver is unrestricted; students never have
// approval scope.
func InScope(actor *models.Profile, course models.Course) bool {
	switch actor.Role {
	case models.RoleClassTeacher:
		return course.ClassTeacherID == actor.UserID
	case models.RoleFaculty:
		return course.FacultyEmail == actor.Email
	case models.RoleHod:
		return course.Department == actor.DepartmentValue() && actor.DepartmentValue() != ""
	case models.RoleCoe:
		return true
	default:
		return false
	}
}

// Advance applies an approver's decision and returns the advanced copy.
// It fails with INVALID_TRANSITION when the actor is not the exact next
// approver, is out of scope, or the application is already terminal.
// The caller must persist the result with a compare-and-swap on the
// prior status so concurrent decisions serialize.
func Advance(app models.Application, actor *models.Profile, course models.Course, decision models.Decision, now time.Time) (models.Application, error) {
	if decision != models.DecisionApprove && decision != models.DecisionReject {
		return app, appErrors.Clone(appErrors.ErrValidation, "decision must be approve or reject")
	}

	required, ok := RequiredApprover(app.Status)
	if !ok {
		return app, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("application is already %s", app.Status))
	}
	if actor.Role != required {
		return app, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("status %s requires a decision from %s", app.Status, required))
	}
	if !InScope(actor, course) {
		return app, appErrors.Clone(appErrors.ErrInvalidTransition,
			"application course is outside your approval scope")
	}

	next := app
	next.UpdatedAt = now
	if decision == models.DecisionReject {
		next.Status = models.StatusRejected
		return next, nil
	}

	switch actor.Role {
	case models.RoleClassTeacher:
		next.Status = models.StatusApprovedByClassTeacher
		next.ClassTeacherApprovedAt = &now
	case models.RoleFaculty:
		next.Status = models.StatusApprovedByFaculty
		next.FacultyApprovedAt = &now
	case models.RoleHod:
		next.Status = models.StatusApprovedByHod
		next.HodApprovedAt = &now
	case models.RoleCoe:
		next.Status = models.StatusApprovedByCoe
		next.CoeApprovedAt = &now
	}
	return next, nil
}

// StagesCleared counts the approval gates an application has passed,
// using the timestamp trail so rejected rows keep their history.
func StagesCleared(app models.Application) int {
	cleared := 0
	for _, ts := range []*time.Time{
		app.ClassTeacherApprovedAt,
		app.FacultyApprovedAt,
		app.HodApprovedAt,
		app.CoeApprovedAt,
	} {
		if ts == nil {
			break
		}
		cleared++
	}
	return cleared
}

// MinStagesForViewer returns how many gates an application must have
// cleared before the given approver role may see it. Class teachers see
// their courses at any stage; faculty only after the class-teacher gate,
// hod after the faculty gate, coe after the hod gate. The gating is
// applied consistently, so later stages and rejections that happened
// after the viewer's gate remain visible for audit.
func MinStagesForViewer(role models.UserRole) int {
	switch role {
	case models.RoleFaculty:
		return 1
	case models.RoleHod:
		return 2
	case models.RoleCoe:
		return 3
	default:
		return 0
	}
}

// Visible decides whether the viewer may list the application.
func Visible(viewer *models.Profile, detail models.ApplicationDetail) bool {
	switch viewer.Role {
	case models.RoleStudent:
		return detail.StudentID == viewer.UserID
	case models.RoleClassTeacher:
		return detail.ClassTeacherID == viewer.UserID
	case models.RoleFaculty:
		return detail.FacultyEmail == viewer.Email &&
			StagesCleared(detail.Application) >= MinStagesForViewer(models.RoleFaculty)
	case models.RoleHod:
		return detail.CourseDepartment == viewer.DepartmentValue() && viewer.DepartmentValue() != "" &&
			StagesCleared(detail.Application) >= MinStagesForViewer(models.RoleHod)
	case models.RoleCoe:
		return StagesCleared(detail.Application) >= MinStagesForViewer(models.RoleCoe)
	default:
		return false
	}
}

// Rank exposes the forward position of a non-rejected status, used by
// tests asserting the chain never moves backwards.
func Rank(status models.ApplicationStatus) (int, bool) {
	r, ok := stageRank[status]
	return r, ok
}
