package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/middleware"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/service"
)

type applicationServiceMock struct {
	submitResp []models.Application
	submitErr  error
	listResp   []models.ApplicationDetail
	getResp    *models.ApplicationDetail
}

func (m *applicationServiceMock) Submit(ctx context.Context, student *models.Profile, req dto.SubmitApplicationsRequest) ([]models.Application, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitResp, nil
}

func (m *applicationServiceMock) ListVisible(ctx context.Context, viewer *models.Profile, limit, offset int) ([]models.ApplicationDetail, error) {
	return m.listResp, nil
}

func (m *applicationServiceMock) Get(ctx context.Context, viewer *models.Profile, id string) (*models.ApplicationDetail, error) {
	return m.getResp, nil
}

type approvalServiceMock struct {
	decision models.Decision
	resp     *models.ApplicationDetail
	err      error
}

func (m *approvalServiceMock) Decide(ctx context.Context, actor *models.Profile, applicationID string, decision models.Decision) (*models.ApplicationDetail, error) {
	m.decision = decision
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type identityResolverMock struct {
	profile *models.Profile
}

func (m *identityResolverMock) Resolve(ctx context.Context, userID string) (*models.Profile, error) {
	return m.profile, nil
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "student-1", Email: "jane@sonatech.ac.in", Role: models.RoleStudent}
}

func TestApplicationHandlerSubmitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	identity := &identityResolverMock{profile: &models.Profile{UserID: "student-1", Role: models.RoleStudent}}
	h := NewApplicationHandler(&applicationServiceMock{}, &approvalServiceMock{}, identity, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationHandlerSubmitUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	identity := &identityResolverMock{profile: &models.Profile{}}
	h := NewApplicationHandler(&applicationServiceMock{}, &approvalServiceMock{}, identity, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications", bytes.NewReader([]byte(`{}`)))
	c.Request = req

	h.Submit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApplicationHandlerDecide(t *testing.T) {
	gin.SetMode(gin.TestMode)
	identity := &identityResolverMock{profile: &models.Profile{UserID: "teacher-1", Role: models.RoleClassTeacher}}
	approvals := &approvalServiceMock{resp: &models.ApplicationDetail{
		Application: models.Application{ID: "app-1", Status: models.StatusApprovedByClassTeacher},
	}}
	h := NewApplicationHandler(&applicationServiceMock{}, approvals, identity, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.DecisionRequest{Decision: models.DecisionApprove})
	req, _ := http.NewRequest(http.MethodPost, "/applications/app-1/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleClassTeacher})

	h.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DecisionApprove, approvals.decision)
	assert.Contains(t, w.Body.String(), "approved_by_class_teacher")
}

func TestApplicationHandlerDecideRejectsUnknownVerdict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	identity := &identityResolverMock{profile: &models.Profile{UserID: "teacher-1", Role: models.RoleClassTeacher}}
	h := NewApplicationHandler(&applicationServiceMock{}, &approvalServiceMock{}, identity, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications/app-1/decision", bytes.NewReader([]byte(`{"decision":"defer"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleClassTeacher})

	h.Decide(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
