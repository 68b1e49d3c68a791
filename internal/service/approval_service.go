package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/repository"
	"github.com/acadflow/approval-api/internal/workflow"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

type transitionStore interface {
	GetDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	ApplyTransition(ctx context.Context, params repository.TransitionParams) error
}

// ApprovalService applies approver decisions to the chain. The decision
// is computed in the workflow package and persisted with a
// compare-and-swap on the prior status, so concurrent approvers
// serialize and the loser gets INVALID_TRANSITION.
type ApprovalService struct {
	apps   transitionStore
	audit  auditLogger
	logger *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(apps transitionStore, audit auditLogger, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{apps: apps, audit: audit, logger: logger}
}

// Decide records one approve/reject verdict and returns the updated
// detail row.
func (s *ApprovalService) Decide(ctx context.Context, actor *models.Profile, applicationID string, decision models.Decision) (*models.ApplicationDetail, error) {
	if !models.ApproverRole(actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only approvers can decide applications")
	}

	detail, err := s.apps.GetDetailByID(ctx, applicationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "application store unavailable")
	}

	now := time.Now().UTC()
	advanced, err := workflow.Advance(detail.Application, actor, detail.Course(), decision, now)
	if err != nil {
		return nil, err
	}

	params := repository.TransitionParams{
		ID:          detail.ID,
		PriorStatus: detail.Status,
		NextStatus:  advanced.Status,
		UpdatedAt:   advanced.UpdatedAt,
	}
	if decision == models.DecisionApprove {
		params.ApprovedAt = &now
	}
	if err := s.apps.ApplyTransition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "a concurrent decision was applied first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "application store unavailable")
	}

	if s.audit != nil {
		uid := actor.UserID
		appID := detail.ID
		oldValues, _ := json.Marshal(map[string]string{"status": string(detail.Status)})
		newValues, _ := json.Marshal(map[string]string{"status": string(advanced.Status), "decision": string(decision)})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &uid,
			Action:     models.AuditActionDecision,
			Resource:   "application",
			ResourceID: &appID,
			OldValues:  oldValues,
			NewValues:  newValues,
		}); err != nil {
			s.logger.Warn("failed to record decision audit", zap.Error(err))
		}
	}

	s.logger.Info("decision applied",
		zap.String("application_id", detail.ID),
		zap.String("actor_role", string(actor.Role)),
		zap.String("from", string(detail.Status)),
		zap.String("to", string(advanced.Status)))

	detail.Application = advanced
	return detail, nil
}
