package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/acadflow/approval-api/internal/models"
)

// pq unique_violation
const uniqueViolationCode = "23505"

// ErrDuplicateCourse marks an insert that collided with the
// (department, semester, section, course_code) uniqueness constraint.
var ErrDuplicateCourse = fmt.Errorf("duplicate course for cohort")

// CourseRepository persists the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, course_code, course_name, department, semester, section, faculty_email, class_teacher_id, created_at, updated_at`

// ListFor returns the catalog for one cohort ordered by course code.
// Each call is a fresh query; there is no caching layer in front.
func (r *CourseRepository) ListFor(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses
	WHERE department = $1 AND semester = $2 AND section = $3
	ORDER BY course_code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, filter.Department, filter.Semester, filter.Section); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// GetByID fetches a single course.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateBatch inserts courses in one transaction; either every row lands
// or none do. Unique-constraint collisions surface as ErrDuplicateCourse.
func (r *CourseRepository) CreateBatch(ctx context.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO courses
	(id, course_code, course_name, department, semester, section, faculty_email, class_teacher_id, created_at, updated_at)
	VALUES (:id, :course_code, :course_name, :department, :semester, :section, :faculty_email, :class_teacher_id, :created_at, :updated_at)`

	now := time.Now().UTC()
	for i := range courses {
		if courses[i].ID == "" {
			courses[i].ID = uuid.NewString()
		}
		courses[i].CreatedAt = now
		courses[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, courses[i]); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolationCode {
				return fmt.Errorf("%w: %s", ErrDuplicateCourse, courses[i].CourseCode)
			}
			return fmt.Errorf("insert course %s: %w", courses[i].CourseCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course insert: %w", err)
	}
	return nil
}
