// Package dto defines the request and response payloads of the HTTP API.
package dto

import (
	"time"

	"github.com/acadflow/approval-api/internal/models"
)

// SendOTPRequest asks for a login code for an (email, role) pair.
type SendOTPRequest struct {
	Email string          `json:"email" binding:"required,email"`
	Role  models.UserRole `json:"role" binding:"required"`
}

// VerifyOTPRequest exchanges a code for a session token.
type VerifyOTPRequest struct {
	Email string          `json:"email" binding:"required,email"`
	Role  models.UserRole `json:"role" binding:"required"`
	OTP   string          `json:"otp" binding:"required,len=6,numeric"`
}

// VerifyOTPResponse is the successful login payload.
type VerifyOTPResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	IssuedAt    time.Time       `json:"issued_at"`
	FirstLogin  bool            `json:"first_login"`
	Profile     *models.Profile `json:"profile"`
}

// CourseInput is one catalog entry registered by a class teacher.
type CourseInput struct {
	CourseCode   string `json:"course_code" binding:"required"`
	CourseName   string `json:"course_name" binding:"required"`
	FacultyEmail string `json:"faculty_email" binding:"required,email"`
}

// SetupProfileRequest completes the mandatory first-login setup. Cohort
// fields are required per role; the service enforces which ones apply.
type SetupProfileRequest struct {
	FullName   string          `json:"full_name" binding:"required"`
	Role       models.UserRole `json:"role" binding:"required"`
	Department string          `json:"department"`
	Semester   int             `json:"semester"`
	Section    string          `json:"section"`
	RollNumber string          `json:"roll_number"`
	// Courses lets class teachers seed their cohort catalog in the same
	// call.
	Courses []CourseInput `json:"courses" binding:"omitempty,max=10,dive"`
}

// RegisterCoursesRequest adds catalog entries for the caller's cohort.
type RegisterCoursesRequest struct {
	Courses []CourseInput `json:"courses" binding:"required,min=1,max=10,dive"`
}

// SubmitApplicationsRequest files one retest or improvement request per
// selected course.
type SubmitApplicationsRequest struct {
	ApplicationType models.ApplicationType `json:"application_type" binding:"required"`
	Reason          string                 `json:"reason" binding:"required"`
	CourseIDs       []string               `json:"course_ids" binding:"required,min=1,max=7"`
}

// DecisionRequest records an approver's verdict on an application.
type DecisionRequest struct {
	Decision models.Decision `json:"decision" binding:"required,oneof=approve reject"`
}
