package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/service"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/response"
)

type applicationService interface {
	Submit(ctx context.Context, student *models.Profile, req dto.SubmitApplicationsRequest) ([]models.Application, error)
	ListVisible(ctx context.Context, viewer *models.Profile, limit, offset int) ([]models.ApplicationDetail, error)
	Get(ctx context.Context, viewer *models.Profile, id string) (*models.ApplicationDetail, error)
}

type approvalService interface {
	Decide(ctx context.Context, actor *models.Profile, applicationID string, decision models.Decision) (*models.ApplicationDetail, error)
}

// ApplicationHandler exposes submission, dashboard and decision routes.
type ApplicationHandler struct {
	apps      applicationService
	approvals approvalService
	identity  profileResolver
	metrics   *service.MetricsService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(apps applicationService, approvals approvalService, identity profileResolver, metrics *service.MetricsService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, approvals: approvals, identity: identity, metrics: metrics}
}

func (h *ApplicationHandler) currentProfile(c *gin.Context) (*models.Profile, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	profile, err := h.identity.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return profile, true
}

// Submit godoc
// @Summary Submit retest or improvement applications
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitApplicationsRequest true "Type, reason and course selection"
// @Success 201 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	var req dto.SubmitApplicationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application payload"))
		return
	}
	created, err := h.apps.Submit(c.Request.Context(), profile, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, created, nil)
}

// List godoc
// @Summary List applications visible to the caller
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	details, err := h.apps.ListVisible(c.Request.Context(), profile, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Get godoc
// @Summary Get one application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	detail, err := h.apps.Get(c.Request.Context(), profile, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Decide godoc
// @Summary Approve or reject an application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/decision [post]
func (h *ApplicationHandler) Decide(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "decision must be approve or reject"))
		return
	}
	detail, err := h.approvals.Decide(c.Request.Context(), profile, c.Param("id"), req.Decision)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveDecision(string(profile.Role), string(req.Decision))
	response.JSON(c, http.StatusOK, detail, nil)
}
