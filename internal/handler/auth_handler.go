package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/service"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/response"
)

type otpService interface {
	Send(ctx context.Context, req dto.SendOTPRequest) error
	Verify(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error)
}

// AuthHandler exposes the OTP login endpoints.
type AuthHandler struct {
	otp     otpService
	metrics *service.MetricsService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(otp otpService, metrics *service.MetricsService) *AuthHandler {
	return &AuthHandler{otp: otp, metrics: metrics}
}

// SendOTP godoc
// @Summary Send a login OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.SendOTPRequest true "Email and role"
// @Success 200 {object} response.Envelope
// @Router /auth/otp/send [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req dto.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid otp request payload"))
		return
	}
	if err := h.otp.Send(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveOTPSend()
	response.JSON(c, http.StatusOK, gin.H{"sent": true}, nil)
}

// VerifyOTP godoc
// @Summary Verify a login OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.VerifyOTPRequest true "Email, role and code"
// @Success 200 {object} response.Envelope
// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid otp verification payload"))
		return
	}
	resp, err := h.otp.Verify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
