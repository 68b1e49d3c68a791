package models

import "time"

// Course is one offered course, owned by the registering class teacher
// and bound to the faculty member who teaches it. Ownership fields are
// set at creation and never reassigned.
type Course struct {
	ID             string    `db:"id" json:"id"`
	CourseCode     string    `db:"course_code" json:"course_code"`
	CourseName     string    `db:"course_name" json:"course_name"`
	Department     string    `db:"department" json:"department"`
	Semester       int       `db:"semester" json:"semester"`
	Section        string    `db:"section" json:"section"`
	FacultyEmail   string    `db:"faculty_email" json:"faculty_email"`
	ClassTeacherID string    `db:"class_teacher_id" json:"class_teacher_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows catalog queries to one class cohort.
type CourseFilter struct {
	Department string
	Semester   int
	Section    string
}
