package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/response"
)

type catalogService interface {
	ListFor(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	RegisterCourses(ctx context.Context, teacher *models.Profile, inputs []dto.CourseInput) ([]models.Course, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, userID string) (*models.Profile, error)
}

// CourseHandler exposes the cohort course catalog.
type CourseHandler struct {
	catalog  catalogService
	identity profileResolver
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(catalog catalogService, identity profileResolver) *CourseHandler {
	return &CourseHandler{catalog: catalog, identity: identity}
}

// List godoc
// @Summary List courses for a cohort
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department (defaults to own cohort)"
// @Param semester query int false "Semester"
// @Param section query string false "Section"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CourseFilter{
		Department: strings.TrimSpace(c.Query("department")),
		Section:    strings.TrimSpace(c.Query("section")),
	}
	if raw := c.Query("semester"); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
			return
		}
		filter.Semester = semester
	}

	// No explicit cohort requested: fall back to the caller's own.
	if filter.Department == "" && filter.Semester == 0 && filter.Section == "" {
		profile, err := h.identity.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter = models.CourseFilter{
			Department: profile.DepartmentValue(),
			Semester:   profile.SemesterValue(),
			Section:    profile.SectionValue(),
		}
	}

	courses, err := h.catalog.ListFor(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Register godoc
// @Summary Register courses for the caller's cohort
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RegisterCoursesRequest true "Courses to register"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RegisterCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course payload"))
		return
	}
	teacher, err := h.identity.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	created, err := h.catalog.RegisterCourses(c.Request.Context(), teacher, req.Courses)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, created, nil)
}
