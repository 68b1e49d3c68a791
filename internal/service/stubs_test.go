package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/repository"
)

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type profileStub struct {
	byEmail  map[string]*models.Profile
	byUserID map[string]*models.Profile
	created  []*models.Profile
}

func newProfileStub() *profileStub {
	return &profileStub{
		byEmail:  make(map[string]*models.Profile),
		byUserID: make(map[string]*models.Profile),
	}
}

func (p *profileStub) add(profile *models.Profile) {
	p.byEmail[profile.Email] = profile
	p.byUserID[profile.UserID] = profile
}

func (p *profileStub) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if profile, ok := p.byEmail[email]; ok {
		copy := *profile
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (p *profileStub) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	if profile, ok := p.byUserID[userID]; ok {
		copy := *profile
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (p *profileStub) Create(ctx context.Context, profile *models.Profile) error {
	p.created = append(p.created, profile)
	p.add(profile)
	return nil
}

func (p *profileStub) CompleteSetup(ctx context.Context, profile *models.Profile) error {
	stored, ok := p.byUserID[profile.UserID]
	if !ok || !stored.IsFirstLogin {
		return sql.ErrNoRows
	}
	*stored = *profile
	stored.IsFirstLogin = false
	return nil
}

type codeStoreStub struct {
	codes     map[string]string
	cooldowns map[string]bool
}

func newCodeStoreStub() *codeStoreStub {
	return &codeStoreStub{codes: make(map[string]string), cooldowns: make(map[string]bool)}
}

func otpKey(email string, role models.UserRole) string {
	return fmt.Sprintf("%s:%s", role, email)
}

func (c *codeStoreStub) SaveCode(ctx context.Context, email string, role models.UserRole, hash string, ttl time.Duration) error {
	c.codes[otpKey(email, role)] = hash
	return nil
}

func (c *codeStoreStub) FetchCode(ctx context.Context, email string, role models.UserRole) (string, error) {
	if hash, ok := c.codes[otpKey(email, role)]; ok {
		return hash, nil
	}
	return "", repository.ErrOTPNotFound
}

func (c *codeStoreStub) DeleteCode(ctx context.Context, email string, role models.UserRole) error {
	delete(c.codes, otpKey(email, role))
	return nil
}

func (c *codeStoreStub) AcquireCooldown(ctx context.Context, email string, role models.UserRole, ttl time.Duration) (bool, error) {
	key := otpKey(email, role)
	if c.cooldowns[key] {
		return false, nil
	}
	c.cooldowns[key] = true
	return true, nil
}

type sentOTP struct {
	email string
	role  models.UserRole
	code  string
}

type mailerStub struct {
	sent    []sentOTP
	sendErr error
}

func (m *mailerStub) SendOTP(ctx context.Context, email string, role models.UserRole, code string, validMinutes int) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentOTP{email: email, role: role, code: code})
	return nil
}

type courseStoreStub struct {
	courses   map[string]*models.Course
	created   []models.Course
	createErr error
}

func newCourseStoreStub() *courseStoreStub {
	return &courseStoreStub{courses: make(map[string]*models.Course)}
}

func (c *courseStoreStub) add(course *models.Course) {
	c.courses[course.ID] = course
}

func (c *courseStoreStub) GetByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := c.courses[id]; ok {
		copy := *course
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *courseStoreStub) ListFor(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	result := make([]models.Course, 0, len(c.courses))
	for _, course := range c.courses {
		if course.Department == filter.Department && course.Semester == filter.Semester && course.Section == filter.Section {
			result = append(result, *course)
		}
	}
	return result, nil
}

func (c *courseStoreStub) CreateBatch(ctx context.Context, courses []models.Course) error {
	if c.createErr != nil {
		return c.createErr
	}
	c.created = append(c.created, courses...)
	return nil
}

type registrarStub struct {
	teacher *models.Profile
	inputs  []dto.CourseInput
	err     error
}

func (r *registrarStub) RegisterCourses(ctx context.Context, teacher *models.Profile, inputs []dto.CourseInput) ([]models.Course, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.teacher = teacher
	r.inputs = inputs
	return nil, nil
}

type appStoreStub struct {
	details       map[string]*models.ApplicationDetail
	created       []models.Application
	lastFilter    models.ApplicationFilter
	transitions   []repository.TransitionParams
	transitionErr error
}

func newAppStoreStub() *appStoreStub {
	return &appStoreStub{details: make(map[string]*models.ApplicationDetail)}
}

func (a *appStoreStub) add(detail *models.ApplicationDetail) {
	a.details[detail.ID] = detail
}

func (a *appStoreStub) CreateBatch(ctx context.Context, apps []models.Application) error {
	a.created = append(a.created, apps...)
	return nil
}

func (a *appStoreStub) GetDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	if detail, ok := a.details[id]; ok {
		copy := *detail
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (a *appStoreStub) ListDetails(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, error) {
	a.lastFilter = filter
	result := make([]models.ApplicationDetail, 0, len(a.details))
	for _, detail := range a.details {
		result = append(result, *detail)
	}
	return result, nil
}

func (a *appStoreStub) ListApprovedDetails(ctx context.Context) ([]models.ApplicationDetail, error) {
	result := make([]models.ApplicationDetail, 0, len(a.details))
	for _, detail := range a.details {
		if detail.Status == models.StatusApprovedByCoe {
			result = append(result, *detail)
		}
	}
	return result, nil
}

func (a *appStoreStub) ApplyTransition(ctx context.Context, params repository.TransitionParams) error {
	if a.transitionErr != nil {
		return a.transitionErr
	}
	a.transitions = append(a.transitions, params)
	detail, ok := a.details[params.ID]
	if !ok || detail.Status != params.PriorStatus {
		return sql.ErrNoRows
	}
	detail.Status = params.NextStatus
	return nil
}
