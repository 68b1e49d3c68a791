package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/service"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
	"github.com/acadflow/approval-api/pkg/response"
)

type exportService interface {
	Render(ctx context.Context, actor *models.Profile, format string) (*service.ExportResult, error)
}

// ExportHandler streams approved-application exports.
type ExportHandler struct {
	exports  exportService
	identity profileResolver
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportService, identity profileResolver) *ExportHandler {
	return &ExportHandler{exports: exports, identity: identity}
}

// Approved godoc
// @Summary Download approved applications
// @Tags Exports
// @Produce text/csv
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /exports/approved [get]
func (h *ExportHandler) Approved(c *gin.Context) {
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
	result, err := h.exports.Render(c.Request.Context(), profile, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
