package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/response"
)

type identityService interface {
	Resolve(ctx context.Context, userID string) (*models.Profile, error)
	CompleteSetup(ctx context.Context, userID string, req dto.SetupProfileRequest) (*models.Profile, error)
}

// ProfileHandler exposes the current principal's profile endpoints.
type ProfileHandler struct {
	identity identityService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(identity identityService) *ProfileHandler {
	return &ProfileHandler{identity: identity}
}

// Get godoc
// @Summary Get the current profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.identity.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Setup godoc
// @Summary Complete first-login profile setup
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SetupProfileRequest true "Setup details"
// @Success 200 {object} response.Envelope
// @Router /profile/setup [put]
func (h *ProfileHandler) Setup(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SetupProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid setup payload"))
		return
	}
	profile, err := h.identity.CompleteSetup(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
