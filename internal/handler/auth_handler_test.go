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
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/service"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

type otpServiceMock struct {
	sendErr    error
	verifyResp *dto.VerifyOTPResponse
	verifyErr  error
}

func (m *otpServiceMock) Send(ctx context.Context, req dto.SendOTPRequest) error {
	return m.sendErr
}

func (m *otpServiceMock) Verify(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyResp, nil
}

func TestAuthHandlerSendOTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&otpServiceMock{}, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SendOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe})
	req, _ := http.NewRequest(http.MethodPost, "/auth/otp/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.SendOTP(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sent":true`)
}

func TestAuthHandlerSendOTPInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&otpServiceMock{}, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/otp/send", bytes.NewReader([]byte(`{"email":"not-an-email"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.SendOTP(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerSendOTPCooldown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&otpServiceMock{sendErr: appErrors.ErrOTPCooldown}, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SendOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe})
	req, _ := http.NewRequest(http.MethodPost, "/auth/otp/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.SendOTP(c)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAuthHandlerVerifyOTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(&otpServiceMock{verifyResp: &dto.VerifyOTPResponse{
		AccessToken: "token-123",
		FirstLogin:  true,
	}}, service.NewMetricsService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.VerifyOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe, OTP: "123456"})
	req, _ := http.NewRequest(http.MethodPost, "/auth/otp/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.VerifyOTP(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token-123")
}
