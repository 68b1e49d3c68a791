package models

import "time"

// UserRole enumerates the roles participating in the approval chain.
type UserRole string

const (
	RoleStudent      UserRole = "student"
	RoleClassTeacher UserRole = "class_teacher"
	RoleFaculty      UserRole = "faculty"
	RoleHod          UserRole = "hod"
	RoleCoe          UserRole = "coe"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleStudent, RoleClassTeacher, RoleFaculty, RoleHod, RoleCoe:
		return true
	default:
		return false
	}
}

// ApproverRole reports whether the role participates in the approval
// chain (everything except student).
func ApproverRole(r UserRole) bool {
	return ValidRole(r) && r != RoleStudent
}

// Profile represents a principal stored in the profiles table. A minimal
// row (role student, is_first_login true) is created on first OTP
// verification; setup completes it exactly once.
type Profile struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Semester     *int      `db:"semester" json:"semester,omitempty"`
	Section      *string   `db:"section" json:"section,omitempty"`
	RollNumber   *string   `db:"roll_number" json:"roll_number,omitempty"`
	IsFirstLogin bool      `db:"is_first_login" json:"is_first_login"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentValue returns the department or "" when unset.
func (p *Profile) DepartmentValue() string {
	if p == nil || p.Department == nil {
		return ""
	}
	return *p.Department
}

// SemesterValue returns the semester or 0 when unset.
func (p *Profile) SemesterValue() int {
	if p == nil || p.Semester == nil {
		return 0
	}
	return *p.Semester
}

// SectionValue returns the section or "" when unset.
func (p *Profile) SectionValue() string {
	if p == nil || p.Section == nil {
		return ""
	}
	return *p.Section
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
