package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

const (
	defaultCustomItemWeight    = 1
	defaultCustomItemMaxPoints = 10.0
)

// CreateAuditRequest represents the request to create an audit
type CreateAuditRequest struct {
	WorkID         string     `json:"work_id"`
	PhaseID        string     `json:"phase_id"`
	DisciplineID   string     `json:"discipline_id"`
	AuditPhaseID   string     `json:"audit_phase_id"`
	AuditorID      string     `json:"auditor_id"`
	StartDate      time.Time  `json:"start_date"`
	PlannedEndDate *time.Time `json:"planned_end_date,omitempty"`
}

// AddCustomItemRequest represents the request to add an ad-hoc checklist item
type AddCustomItemRequest struct {
	Description  string   `json:"description"`
	DisciplineID *string  `json:"discipline_id,omitempty"`
	CategoryID   *string  `json:"category_id,omitempty"`
	Weight       *int     `json:"weight,omitempty"`
	MaxPoints    *float64 `json:"max_points,omitempty"`
}

// UpdateItemRequest represents an item evaluation write
type UpdateItemRequest struct {
	Status          domain.ItemStatus `json:"status"`
	EvidenceText    *string           `json:"evidence_text,omitempty"`
	TraceabilityRef *string           `json:"traceability_ref,omitempty"`
	NextReviewDate  *time.Time        `json:"next_review_date,omitempty"`
	PointsObtained  *float64          `json:"points_obtained,omitempty"`
}

// AuditUseCase owns the audit lifecycle: creation from the template library,
// the verification/completion/cancellation transitions with their guards,
// and item writes. Every transition appends a trail record in the same
// transaction as the status change.
type AuditUseCase struct {
	audits    ports.AuditRepository
	templates ports.TemplateRepository
	trail     ports.TrailRepository
	log       *logrus.Logger
}

// NewAuditUseCase creates a new audit use case
func NewAuditUseCase(
	audits ports.AuditRepository,
	templates ports.TemplateRepository,
	trail ports.TrailRepository,
	log *logrus.Logger,
) *AuditUseCase {
	return &AuditUseCase{
		audits:    audits,
		templates: templates,
		trail:     trail,
		log:       log,
	}
}

// CreateAudit creates an audit and snapshots every applicable template item
// into it. An empty checklist for the discipline/phase combination is a hard
// precondition failure, not a silently empty audit.
func (uc *AuditUseCase) CreateAudit(ctx context.Context, req CreateAuditRequest) (*domain.Audit, error) {
	if err := uc.validateCreateRequest(req); err != nil {
		return nil, err
	}

	templates, err := uc.templates.FindApplicableItems(ctx, req.DisciplineID, req.AuditPhaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template items: %w", err)
	}
	if len(templates) == 0 {
		return nil, domain.ErrNoChecklistItems
	}

	audit := domain.NewAudit(req.WorkID, req.PhaseID, req.DisciplineID, req.AuditPhaseID, req.AuditorID, req.StartDate, req.PlannedEndDate)

	items := make([]*domain.AuditItem, 0, len(templates))
	for i, tpl := range templates {
		items = append(items, domain.NewAuditItem(audit.ID, tpl, i+1))
	}

	trail := domain.NewStatusTrailEntry(audit.ID, "", audit.Status, req.AuditorID)
	if err := uc.audits.Create(ctx, audit, items, trail); err != nil {
		return nil, fmt.Errorf("failed to create audit: %w", err)
	}

	uc.log.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"discipline": req.DisciplineID,
		"items":      len(items),
	}).Info("audit created")

	return audit, nil
}

// GetAudit retrieves an audit by ID
func (uc *AuditUseCase) GetAudit(ctx context.Context, auditID string) (*domain.Audit, error) {
	if auditID == "" {
		return nil, domain.NewValidationError("audit ID is required")
	}
	return uc.audits.FindByID(ctx, auditID)
}

// ListAudits retrieves audits based on filter criteria
func (uc *AuditUseCase) ListAudits(ctx context.Context, filter domain.AuditFilter) ([]*domain.Audit, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	audits, err := uc.audits.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audits: %w", err)
	}

	count, err := uc.audits.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audits: %w", err)
	}

	return audits, count, nil
}

// ListItems retrieves the checklist items of an audit in display order
func (uc *AuditUseCase) ListItems(ctx context.Context, auditID string) ([]*domain.AuditItem, error) {
	if _, err := uc.audits.FindByID(ctx, auditID); err != nil {
		return nil, err
	}
	return uc.audits.ListItems(ctx, auditID)
}

// GetTrail retrieves the audit trail of an audit, newest first
func (uc *AuditUseCase) GetTrail(ctx context.Context, auditID string, limit int) ([]*domain.TrailEntry, error) {
	if _, err := uc.audits.FindByID(ctx, auditID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return uc.trail.ListByAudit(ctx, auditID, limit)
}

// FinishVerification moves an audit to AWAITING_ISSUE_TRACKING once every
// item has been evaluated.
func (uc *AuditUseCase) FinishVerification(ctx context.Context, auditID, actorID string) (*domain.Audit, error) {
	audit, items, err := uc.loadForTransition(ctx, auditID, actorID)
	if err != nil {
		return nil, err
	}

	from := audit.Status
	if err := audit.FinishVerification(items); err != nil {
		return nil, err
	}

	trail := domain.NewStatusTrailEntry(audit.ID, from, audit.Status, actorID)
	expect := []domain.AuditStatus{domain.AuditStatusNotStarted, domain.AuditStatusInProgress}
	if err := uc.audits.Transition(ctx, audit, expect, trail, domain.CheckAllItemsEvaluated); err != nil {
		return nil, err
	}

	uc.log.WithFields(logrus.Fields{"audit_id": audit.ID, "actor": actorID}).Info("verification finished")
	return audit, nil
}

// CompleteAudit moves an audit to COMPLETED once every non-conformance
// carries evidence and a traceability reference, and stamps the completion
// date.
func (uc *AuditUseCase) CompleteAudit(ctx context.Context, auditID, actorID string) (*domain.Audit, error) {
	audit, items, err := uc.loadForTransition(ctx, auditID, actorID)
	if err != nil {
		return nil, err
	}

	from := audit.Status
	if err := audit.Complete(items); err != nil {
		return nil, err
	}

	trail := domain.NewStatusTrailEntry(audit.ID, from, audit.Status, actorID)
	expect := []domain.AuditStatus{domain.AuditStatusAwaitingIssueTracking}
	if err := uc.audits.Transition(ctx, audit, expect, trail, domain.CheckNonConformancesDocumented); err != nil {
		return nil, err
	}

	uc.log.WithFields(logrus.Fields{"audit_id": audit.ID, "actor": actorID}).Info("audit completed")
	return audit, nil
}

// CancelAudit moves an audit to CANCELLED, recording actor, timestamp and an
// optional reason. Cancellation is a terminal status, not erasure.
func (uc *AuditUseCase) CancelAudit(ctx context.Context, auditID, actorID string, reason *string) (*domain.Audit, error) {
	audit, _, err := uc.loadForTransition(ctx, auditID, actorID)
	if err != nil {
		return nil, err
	}

	from := audit.Status
	if err := audit.Cancel(actorID, reason); err != nil {
		return nil, err
	}

	trail := domain.NewStatusTrailEntry(audit.ID, from, audit.Status, actorID)
	expect := []domain.AuditStatus{domain.AuditStatusNotStarted, domain.AuditStatusInProgress, domain.AuditStatusAwaitingIssueTracking}
	if err := uc.audits.Transition(ctx, audit, expect, trail, nil); err != nil {
		return nil, err
	}

	uc.log.WithFields(logrus.Fields{"audit_id": audit.ID, "actor": actorID}).Info("audit cancelled")
	return audit, nil
}

// AddCustomItem adds an ad-hoc checklist line to an in-flight audit.
func (uc *AuditUseCase) AddCustomItem(ctx context.Context, auditID string, req AddCustomItemRequest, actorID string) (*domain.AuditItem, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, domain.NewValidationError("description is required")
	}
	if actorID == "" {
		return nil, domain.NewValidationError("actor ID is required")
	}

	weight := defaultCustomItemWeight
	if req.Weight != nil {
		if *req.Weight <= 0 {
			return nil, domain.NewValidationError("weight must be a positive integer")
		}
		weight = *req.Weight
	}

	maxPoints := defaultCustomItemMaxPoints
	if req.MaxPoints != nil {
		if *req.MaxPoints <= 0 {
			return nil, domain.NewValidationError("max points must be positive")
		}
		maxPoints = *req.MaxPoints
	}

	audit, err := uc.audits.FindByID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if !audit.CanModifyItems() {
		return nil, domain.ErrItemsNotEditable
	}

	existing, err := uc.audits.ListItems(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit items: %w", err)
	}

	item := domain.NewCustomAuditItem(auditID, req.Description, req.DisciplineID, req.CategoryID, weight, maxPoints, len(existing)+1)
	custom := domain.NewCustomItem(item, actorID)

	if err := uc.audits.CreateItem(ctx, item, custom); err != nil {
		return nil, fmt.Errorf("failed to create custom item: %w", err)
	}

	uc.log.WithFields(logrus.Fields{"audit_id": auditID, "item_id": item.ID, "actor": actorID}).Info("custom item added")
	return item, nil
}

// UpdateItem records an auditor's evaluation on one checklist line. Evidence
// and traceability are not required here: the completion gate checks them,
// so partial findings can always be saved.
func (uc *AuditUseCase) UpdateItem(ctx context.Context, auditID, itemID string, req UpdateItemRequest, actorID string) (*domain.AuditItem, error) {
	if actorID == "" {
		return nil, domain.NewValidationError("actor ID is required")
	}

	if _, err := uc.audits.FindByID(ctx, auditID); err != nil {
		return nil, err
	}

	item, err := uc.audits.FindItem(ctx, auditID, itemID)
	if err != nil {
		return nil, err
	}

	eval := domain.ItemEvaluation{
		Status:          req.Status,
		EvidenceText:    req.EvidenceText,
		TraceabilityRef: req.TraceabilityRef,
		NextReviewDate:  req.NextReviewDate,
		PointsObtained:  req.PointsObtained,
	}
	if err := item.Evaluate(eval, actorID); err != nil {
		return nil, err
	}

	if err := uc.audits.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return item, nil
}

func (uc *AuditUseCase) loadForTransition(ctx context.Context, auditID, actorID string) (*domain.Audit, []*domain.AuditItem, error) {
	if auditID == "" {
		return nil, nil, domain.NewValidationError("audit ID is required")
	}
	if actorID == "" {
		return nil, nil, domain.NewValidationError("actor ID is required")
	}

	audit, err := uc.audits.FindByID(ctx, auditID)
	if err != nil {
		return nil, nil, err
	}

	items, err := uc.audits.ListItems(ctx, auditID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list audit items: %w", err)
	}

	return audit, items, nil
}

func (uc *AuditUseCase) validateCreateRequest(req CreateAuditRequest) error {
	switch {
	case req.WorkID == "":
		return domain.NewValidationError("work ID is required")
	case req.PhaseID == "":
		return domain.NewValidationError("phase ID is required")
	case req.DisciplineID == "":
		return domain.NewValidationError("discipline ID is required")
	case req.AuditPhaseID == "":
		return domain.NewValidationError("audit phase ID is required")
	case req.AuditorID == "":
		return domain.NewValidationError("auditor ID is required")
	case req.StartDate.IsZero():
		return domain.NewValidationError("start date is required")
	}
	if req.PlannedEndDate != nil && req.PlannedEndDate.Before(req.StartDate) {
		return domain.NewValidationError("planned end date must not precede start date")
	}
	return nil
}
