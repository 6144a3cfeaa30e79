package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus represents the lifecycle status of an audit
type AuditStatus string

const (
	AuditStatusNotStarted            AuditStatus = "NOT_STARTED"
	AuditStatusInProgress            AuditStatus = "IN_PROGRESS"
	AuditStatusAwaitingIssueTracking AuditStatus = "AWAITING_ISSUE_TRACKING"
	AuditStatusCompleted             AuditStatus = "COMPLETED"
	AuditStatusCancelled             AuditStatus = "CANCELLED"
)

// Audit represents one compliance-checking engagement against a single
// work / phase / discipline / audit-phase combination.
type Audit struct {
	ID                   string      `json:"id"`
	WorkID               string      `json:"work_id"`
	PhaseID              string      `json:"phase_id"`
	DisciplineID         string      `json:"discipline_id"`
	AuditPhaseID         string      `json:"audit_phase_id"`
	Status               AuditStatus `json:"status"`
	StartDate            time.Time   `json:"start_date"`
	PlannedEndDate       *time.Time  `json:"planned_end_date,omitempty"`
	CompletionDate       *time.Time  `json:"completion_date,omitempty"`
	CancelledAt          *time.Time  `json:"cancelled_at,omitempty"`
	CancelledBy          *string     `json:"cancelled_by,omitempty"`
	CancelReason         *string     `json:"cancel_reason,omitempty"`
	ResponsibleAuditorID string      `json:"responsible_auditor_id"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// NewAudit creates a new audit. Audits start life in progress: creating one
// is the act of beginning verification work.
func NewAudit(workID, phaseID, disciplineID, auditPhaseID, auditorID string, startDate time.Time, plannedEnd *time.Time) *Audit {
	now := time.Now()
	return &Audit{
		ID:                   uuid.NewString(),
		WorkID:               workID,
		PhaseID:              phaseID,
		DisciplineID:         disciplineID,
		AuditPhaseID:         auditPhaseID,
		Status:               AuditStatusInProgress,
		StartDate:            startDate,
		PlannedEndDate:       plannedEnd,
		ResponsibleAuditorID: auditorID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// IsTerminal reports whether the audit is in a terminal status.
func (a *Audit) IsTerminal() bool {
	return a.Status == AuditStatusCompleted || a.Status == AuditStatusCancelled
}

// CanModifyItems reports whether items may be added to the audit.
func (a *Audit) CanModifyItems() bool {
	return a.Status == AuditStatusInProgress || a.Status == AuditStatusAwaitingIssueTracking
}

// FinishVerification moves the audit to AWAITING_ISSUE_TRACKING once every
// item has been evaluated. Validation is deferred to this boundary so an
// auditor can save partial findings without being blocked mid-entry.
func (a *Audit) FinishVerification(items []*AuditItem) error {
	if a.Status != AuditStatusNotStarted && a.Status != AuditStatusInProgress {
		return NewPreconditionErrorf("cannot finish verification from status %s", a.Status)
	}
	if err := CheckAllItemsEvaluated(items); err != nil {
		return err
	}
	a.Status = AuditStatusAwaitingIssueTracking
	a.UpdatedAt = time.Now()
	return nil
}

// Complete moves the audit to COMPLETED and stamps the completion date.
// Every non-conforming item must carry evidence and a traceability
// reference to an external defect tracker.
func (a *Audit) Complete(items []*AuditItem) error {
	if a.Status != AuditStatusAwaitingIssueTracking {
		return NewPreconditionErrorf("cannot complete audit from status %s", a.Status)
	}
	if err := CheckNonConformancesDocumented(items); err != nil {
		return err
	}
	now := time.Now()
	a.Status = AuditStatusCompleted
	a.CompletionDate = &now
	a.UpdatedAt = now
	return nil
}

// Cancel moves the audit to CANCELLED. Allowed from any non-terminal status.
// The reason is optional; actor and timestamp are always recorded.
func (a *Audit) Cancel(actorID string, reason *string) error {
	if a.Status == AuditStatusCancelled {
		return ErrAuditCancelled
	}
	if a.Status == AuditStatusCompleted {
		return ErrAuditCompleted
	}
	now := time.Now()
	a.Status = AuditStatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = &actorID
	a.CancelReason = reason
	a.UpdatedAt = now
	return nil
}

// CheckAllItemsEvaluated is the finishVerification gate: the audit must have
// at least one item and none of them may still be NOT_STARTED.
func CheckAllItemsEvaluated(items []*AuditItem) error {
	if len(items) == 0 {
		return NewPreconditionError("audit has no checklist items")
	}
	pending := 0
	for _, item := range items {
		if item.Status == ItemStatusNotStarted {
			pending++
		}
	}
	if pending > 0 {
		return NewPreconditionErrorf("items pending evaluation: %d of %d not yet evaluated", pending, len(items))
	}
	return nil
}

// CheckNonConformancesDocumented is the completion gate: every non-conforming
// item needs non-empty evidence text and a traceability reference.
func CheckNonConformancesDocumented(items []*AuditItem) error {
	missing := 0
	for _, item := range items {
		if item.NeedsEvidence() {
			missing++
		}
	}
	if missing > 0 {
		return NewPreconditionErrorf("non-conforming items missing evidence/traceability: %d item(s) need documentation", missing)
	}
	return nil
}

// AuditFilter represents filters for listing audits
type AuditFilter struct {
	Status       *AuditStatus `json:"status,omitempty"`
	WorkID       *string      `json:"work_id,omitempty"`
	DisciplineID *string      `json:"discipline_id,omitempty"`
	AuditorID    *string      `json:"auditor_id,omitempty"`
	Limit        int          `json:"limit"`
	Offset       int          `json:"offset"`
}
