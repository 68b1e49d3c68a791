package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadflow/approval-api/internal/models"
)

// ApplicationRepository persists applications and their approval trail.
// Status is only ever written through ApplyTransition; nothing else in
// the codebase updates the column.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationDetailSelect = `SELECT a.id, a.student_id, a.course_id, a.application_type, a.reason, a.status,
       a.class_teacher_approved_at, a.faculty_approved_at, a.hod_approved_at, a.coe_approved_at,
       a.created_at, a.updated_at,
       c.course_code, c.course_name, c.department AS course_department, c.semester AS course_semester,
       c.section AS course_section, c.faculty_email, c.class_teacher_id,
       p.full_name AS student_name, p.roll_number AS student_roll_number
FROM applications a
JOIN courses c ON c.id = a.course_id
JOIN profiles p ON p.user_id = a.student_id`

// CreateBatch inserts pending applications in one transaction.
func (r *ApplicationRepository) CreateBatch(ctx context.Context, apps []models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin application insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO applications
	(id, student_id, course_id, application_type, reason, status, created_at, updated_at)
	VALUES (:id, :student_id, :course_id, :application_type, :reason, :status, :created_at, :updated_at)`

	now := time.Now().UTC()
	for i := range apps {
		if apps[i].ID == "" {
			apps[i].ID = uuid.NewString()
		}
		if apps[i].Status == "" {
			apps[i].Status = models.StatusPending
		}
		apps[i].CreatedAt = now
		apps[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, apps[i]); err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit application insert: %w", err)
	}
	return nil
}

// GetDetailByID fetches one application joined with course and student.
func (r *ApplicationRepository) GetDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	query := applicationDetailSelect + ` WHERE a.id = $1`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListDetails returns detail rows matching the filter, newest first.
// MinStatusRank gates on the approval-timestamp trail so rejected rows
// stay visible to stages they had already passed.
func (r *ApplicationRepository) ListDetails(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	builder := strings.Builder{}
	builder.WriteString(applicationDetailSelect)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.ClassTeacherID != "" {
		args = append(args, filter.ClassTeacherID)
		conditions = append(conditions, fmt.Sprintf("c.class_teacher_id = $%d", len(args)))
	}
	if filter.FacultyEmail != "" {
		args = append(args, filter.FacultyEmail)
		conditions = append(conditions, fmt.Sprintf("c.faculty_email = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("c.department = $%d", len(args)))
	}
	switch filter.MinStatusRank {
	case 1:
		conditions = append(conditions, "a.class_teacher_approved_at IS NOT NULL")
	case 2:
		conditions = append(conditions, "a.faculty_approved_at IS NOT NULL")
	case 3:
		conditions = append(conditions, "a.hod_approved_at IS NOT NULL")
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY a.created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var details []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &details, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return details, nil
}

// ListApprovedDetails returns every fully approved application, newest
// first, recomputed fresh for each export.
func (r *ApplicationRepository) ListApprovedDetails(ctx context.Context) ([]models.ApplicationDetail, error) {
	query := applicationDetailSelect + ` WHERE a.status = $1 ORDER BY a.created_at DESC`
	var details []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &details, query, models.StatusApprovedByCoe); err != nil {
		return nil, fmt.Errorf("list approved applications: %w", err)
	}
	return details, nil
}

// TransitionParams groups the columns written by one approval decision.
type TransitionParams struct {
	ID          string
	PriorStatus models.ApplicationStatus
	NextStatus  models.ApplicationStatus
	ApprovedAt  *time.Time
	UpdatedAt   time.Time
}

// timestampColumn maps an approved status to its trail column. Reject
// writes no timestamp.
func timestampColumn(status models.ApplicationStatus) string {
	switch status {
	case models.StatusApprovedByClassTeacher:
		return "class_teacher_approved_at"
	case models.StatusApprovedByFaculty:
		return "faculty_approved_at"
	case models.StatusApprovedByHod:
		return "hod_approved_at"
	case models.StatusApprovedByCoe:
		return "coe_approved_at"
	default:
		return ""
	}
}

// ApplyTransition persists one decision as a compare-and-swap keyed on
// the prior status. When a concurrent decision won the race, zero rows
// match and sql.ErrNoRows comes back so the caller can fail the gate.
func (r *ApplicationRepository) ApplyTransition(ctx context.Context, params TransitionParams) error {
	setParts := []string{"status = :next_status", "updated_at = :updated_at"}
	args := map[string]interface{}{
		"id":           params.ID,
		"prior_status": params.PriorStatus,
		"next_status":  params.NextStatus,
		"updated_at":   params.UpdatedAt,
	}
	if col := timestampColumn(params.NextStatus); col != "" && params.ApprovedAt != nil {
		setParts = append(setParts, fmt.Sprintf("%s = :approved_at", col))
		args["approved_at"] = *params.ApprovedAt
	}

	query := fmt.Sprintf("UPDATE applications SET %s WHERE id = :id AND status = :prior_status",
		strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("apply transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
