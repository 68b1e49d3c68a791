package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/repository"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

func classTeacherProfile() *models.Profile {
	dept, sem, sect := "IT", 3, "A"
	return &models.Profile{
		UserID:     "teacher-1",
		Email:      "teacher@college.edu",
		Role:       models.RoleClassTeacher,
		Department: &dept,
		Semester:   &sem,
		Section:    &sect,
	}
}

func TestRegisterCoursesBuildsCohortRows(t *testing.T) {
	courses := newCourseStoreStub()
	audit := &auditStub{}
	svc := NewCatalogService(courses, audit, nil)

	created, err := svc.RegisterCourses(context.Background(), classTeacherProfile(), []dto.CourseInput{
		{CourseCode: " U23IT301 ", CourseName: "Data Structures", FacultyEmail: "Faculty@College.edu"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "U23IT301", created[0].CourseCode)
	assert.Equal(t, "faculty@college.edu", created[0].FacultyEmail)
	assert.Equal(t, "IT", created[0].Department)
	assert.Equal(t, 3, created[0].Semester)
	assert.Equal(t, "teacher-1", created[0].ClassTeacherID)
	require.Len(t, courses.created, 1)
	require.Len(t, audit.logs, 1)
}

func TestRegisterCoursesCap(t *testing.T) {
	svc := NewCatalogService(newCourseStoreStub(), nil, nil)

	inputs := make([]dto.CourseInput, 11)
	for i := range inputs {
		inputs[i] = dto.CourseInput{
			CourseCode:   fmt.Sprintf("U23IT3%02d", i),
			CourseName:   "Course",
			FacultyEmail: "faculty@college.edu",
		}
	}
	_, err := svc.RegisterCourses(context.Background(), classTeacherProfile(), inputs)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterCoursesDuplicateConflict(t *testing.T) {
	courses := newCourseStoreStub()
	courses.createErr = fmt.Errorf("%w: U23IT301", repository.ErrDuplicateCourse)
	svc := NewCatalogService(courses, nil, nil)

	_, err := svc.RegisterCourses(context.Background(), classTeacherProfile(), []dto.CourseInput{
		{CourseCode: "U23IT301", CourseName: "Data Structures", FacultyEmail: "faculty@college.edu"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterCoursesRequiresClassTeacher(t *testing.T) {
	svc := NewCatalogService(newCourseStoreStub(), nil, nil)
	student := &models.Profile{UserID: "s1", Role: models.RoleStudent}

	_, err := svc.RegisterCourses(context.Background(), student, []dto.CourseInput{
		{CourseCode: "U23IT301", CourseName: "Data Structures", FacultyEmail: "faculty@college.edu"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRegisterCoursesRejectsRepeatedCode(t *testing.T) {
	svc := NewCatalogService(newCourseStoreStub(), nil, nil)

	_, err := svc.RegisterCourses(context.Background(), classTeacherProfile(), []dto.CourseInput{
		{CourseCode: "U23IT301", CourseName: "Data Structures", FacultyEmail: "faculty@college.edu"},
		{CourseCode: "U23IT301", CourseName: "Data Structures Lab", FacultyEmail: "faculty@college.edu"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListForValidatesCohort(t *testing.T) {
	svc := NewCatalogService(newCourseStoreStub(), nil, nil)

	_, err := svc.ListFor(context.Background(), models.CourseFilter{Department: "IT"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
