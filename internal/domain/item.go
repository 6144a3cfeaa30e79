package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemStatus represents the conformance finding recorded on a checklist item
type ItemStatus string

const (
	ItemStatusNotStarted    ItemStatus = "NOT_STARTED"
	ItemStatusConforming    ItemStatus = "CONFORMING"
	ItemStatusNonConforming ItemStatus = "NON_CONFORMING"
	ItemStatusObservation   ItemStatus = "OBSERVATION"
	ItemStatusNotApplicable ItemStatus = "NOT_APPLICABLE"
)

// ValidItemStatuses enumerates every settable item status.
var ValidItemStatuses = map[ItemStatus]bool{
	ItemStatusNotStarted:    true,
	ItemStatusConforming:    true,
	ItemStatusNonConforming: true,
	ItemStatusObservation:   true,
	ItemStatusNotApplicable: true,
}

// AuditItem is one checklist line within an audit: either a snapshot of a
// library template entry or a custom item added during the audit. Weight and
// max points are captured at creation time and never change afterwards, even
// if the template library does.
type AuditItem struct {
	ID              string     `json:"id"`
	AuditID         string     `json:"audit_id"`
	TemplateItemID  *string    `json:"template_item_id,omitempty"`
	DisciplineID    *string    `json:"discipline_id,omitempty"`
	CategoryID      *string    `json:"category_id,omitempty"`
	Description     string     `json:"description"`
	Status          ItemStatus `json:"status"`
	EvidenceText    *string    `json:"evidence_text,omitempty"`
	TraceabilityRef *string    `json:"traceability_ref,omitempty"`
	NextReviewDate  *time.Time `json:"next_review_date,omitempty"`
	Weight          int        `json:"weight"`
	MaxPoints       float64    `json:"max_points"`
	PointsObtained  *float64   `json:"points_obtained,omitempty"`
	EvaluatedBy     *string    `json:"evaluated_by,omitempty"`
	EvaluatedAt     *time.Time `json:"evaluated_at,omitempty"`
	IsCustom        bool       `json:"is_custom"`
	DisplayOrder    int        `json:"display_order"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewAuditItem snapshots a template entry into an audit checklist line.
func NewAuditItem(auditID string, tpl *TemplateItem, displayOrder int) *AuditItem {
	now := time.Now()
	tplID := tpl.ID
	disciplineID := tpl.DisciplineID
	categoryID := tpl.CategoryID
	return &AuditItem{
		ID:             uuid.NewString(),
		AuditID:        auditID,
		TemplateItemID: &tplID,
		DisciplineID:   &disciplineID,
		CategoryID:     &categoryID,
		Description:    tpl.Description,
		Status:         ItemStatusNotStarted,
		Weight:         tpl.Weight,
		MaxPoints:      tpl.MaxPoints,
		DisplayOrder:   displayOrder,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewCustomAuditItem creates an ad-hoc checklist line during the audit.
func NewCustomAuditItem(auditID, description string, disciplineID, categoryID *string, weight int, maxPoints float64, displayOrder int) *AuditItem {
	now := time.Now()
	return &AuditItem{
		ID:           uuid.NewString(),
		AuditID:      auditID,
		DisciplineID: disciplineID,
		CategoryID:   categoryID,
		Description:  description,
		Status:       ItemStatusNotStarted,
		Weight:       weight,
		MaxPoints:    maxPoints,
		IsCustom:     true,
		DisplayOrder: displayOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ItemEvaluation carries the fields an auditor records on a checklist line.
// Nil pointer fields are left untouched; status is always applied.
type ItemEvaluation struct {
	Status          ItemStatus
	EvidenceText    *string
	TraceabilityRef *string
	NextReviewDate  *time.Time
	PointsObtained  *float64
}

// Evaluate applies an auditor's finding to the item. Evidence and
// traceability requirements are NOT enforced here: partial saves are always
// legal, and the completion gate on the owning audit checks documentation.
func (i *AuditItem) Evaluate(eval ItemEvaluation, actorID string) error {
	if !ValidItemStatuses[eval.Status] {
		return NewValidationError("invalid item status: " + string(eval.Status))
	}
	if eval.PointsObtained != nil {
		if *eval.PointsObtained < 0 || *eval.PointsObtained > i.MaxPoints {
			return NewValidationError("points obtained must be between 0 and max points")
		}
	}
	now := time.Now()
	i.Status = eval.Status
	if eval.EvidenceText != nil {
		i.EvidenceText = eval.EvidenceText
	}
	if eval.TraceabilityRef != nil {
		i.TraceabilityRef = eval.TraceabilityRef
	}
	if eval.NextReviewDate != nil {
		i.NextReviewDate = eval.NextReviewDate
	}
	if eval.PointsObtained != nil {
		i.PointsObtained = eval.PointsObtained
	}
	i.EvaluatedBy = &actorID
	i.EvaluatedAt = &now
	i.UpdatedAt = now
	return nil
}

// NeedsEvidence reports whether this item blocks audit completion: a
// non-conforming finding without evidence text or a traceability reference.
func (i *AuditItem) NeedsEvidence() bool {
	if i.Status != ItemStatusNonConforming {
		return false
	}
	return i.EvidenceText == nil || strings.TrimSpace(*i.EvidenceText) == "" ||
		i.TraceabilityRef == nil || strings.TrimSpace(*i.TraceabilityRef) == ""
}

// CustomItem records the authorship and definition of an ad-hoc checklist
// line, linked 1:1 to its audit item.
type CustomItem struct {
	ID          string    `json:"id"`
	AuditID     string    `json:"audit_id"`
	AuditItemID string    `json:"audit_item_id"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCustomItem creates the authorship record for a custom audit item.
func NewCustomItem(item *AuditItem, createdBy string) *CustomItem {
	return &CustomItem{
		ID:          uuid.NewString(),
		AuditID:     item.AuditID,
		AuditItemID: item.ID,
		Description: item.Description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
}
