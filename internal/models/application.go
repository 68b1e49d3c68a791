package models

import "time"

// ApplicationStatus tracks an application through the approval chain.
// The chain only moves forward; rejected and approved_by_coe are
// terminal.
type ApplicationStatus string

const (
	StatusPending                ApplicationStatus = "pending"
	StatusApprovedByClassTeacher ApplicationStatus = "approved_by_class_teacher"
	StatusApprovedByFaculty      ApplicationStatus = "approved_by_faculty"
	StatusApprovedByHod          ApplicationStatus = "approved_by_hod"
	StatusApprovedByCoe          ApplicationStatus = "approved_by_coe"
	StatusRejected               ApplicationStatus = "rejected"
)

// ApplicationType distinguishes retest from improvement requests.
type ApplicationType string

const (
	TypeRetest      ApplicationType = "retest"
	TypeImprovement ApplicationType = "improvement"
)

// ValidApplicationType reports whether the value is a known type.
func ValidApplicationType(t ApplicationType) bool {
	return t == TypeRetest || t == TypeImprovement
}

// Decision is an approver's verdict on an application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Application is one student request for a retest or improvement in one
// course. Rows are never deleted; the timestamps form the audit trail.
type Application struct {
	ID                     string            `db:"id" json:"id"`
	StudentID              string            `db:"student_id" json:"student_id"`
	CourseID               string            `db:"course_id" json:"course_id"`
	ApplicationType        ApplicationType   `db:"application_type" json:"application_type"`
	Reason                 string            `db:"reason" json:"reason"`
	Status                 ApplicationStatus `db:"status" json:"status"`
	ClassTeacherApprovedAt *time.Time        `db:"class_teacher_approved_at" json:"class_teacher_approved_at,omitempty"`
	FacultyApprovedAt      *time.Time        `db:"faculty_approved_at" json:"faculty_approved_at,omitempty"`
	HodApprovedAt          *time.Time        `db:"hod_approved_at" json:"hod_approved_at,omitempty"`
	CoeApprovedAt          *time.Time        `db:"coe_approved_at" json:"coe_approved_at,omitempty"`
	CreatedAt              time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail joins an application with its course and the
// submitting student's profile for dashboards and exports.
type ApplicationDetail struct {
	Application
	CourseCode        string  `db:"course_code" json:"course_code"`
	CourseName        string  `db:"course_name" json:"course_name"`
	CourseDepartment  string  `db:"course_department" json:"course_department"`
	CourseSemester    int     `db:"course_semester" json:"course_semester"`
	CourseSection     string  `db:"course_section" json:"course_section"`
	FacultyEmail      string  `db:"faculty_email" json:"faculty_email"`
	ClassTeacherID    string  `db:"class_teacher_id" json:"class_teacher_id"`
	StudentName       string  `db:"student_name" json:"student_name"`
	StudentRollNumber *string `db:"student_roll_number" json:"student_roll_number,omitempty"`
}

// Course reconstructs the owning course view carried by a detail row.
func (d *ApplicationDetail) Course() Course {
	return Course{
		ID:             d.CourseID,
		CourseCode:     d.CourseCode,
		CourseName:     d.CourseName,
		Department:     d.CourseDepartment,
		Semester:       d.CourseSemester,
		Section:        d.CourseSection,
		FacultyEmail:   d.FacultyEmail,
		ClassTeacherID: d.ClassTeacherID,
	}
}

// ApplicationFilter constrains dashboard listing queries.
type ApplicationFilter struct {
	StudentID      string
	ClassTeacherID string
	FacultyEmail   string
	Department     string
	MinStatusRank  int
	Limit          int
	Offset         int
}
