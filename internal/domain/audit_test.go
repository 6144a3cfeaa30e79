package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestAudit() *Audit {
	return NewAudit("work-1", "phase-1", "disc-struct", "aphase-design", "auditor-1", time.Now(), nil)
}

func newTestItem(auditID string, status ItemStatus) *AuditItem {
	tpl := &TemplateItem{
		ID:           "tpl-1",
		DisciplineID: "disc-struct",
		CategoryID:   "cat-model",
		Description:  "Model elements carry the agreed LOD",
		Weight:       1,
		MaxPoints:    10,
		Active:       true,
	}
	item := NewAuditItem(auditID, tpl, 1)
	item.Status = status
	return item
}

func TestNewAudit(t *testing.T) {
	audit := newTestAudit()

	if audit.Status != AuditStatusInProgress {
		t.Errorf("Expected status %s, got %s", AuditStatusInProgress, audit.Status)
	}
	if audit.ID == "" {
		t.Error("Expected audit ID to be set")
	}
	if audit.CompletionDate != nil {
		t.Error("Expected CompletionDate to be nil on creation")
	}
	if audit.CancelledAt != nil || audit.CancelledBy != nil {
		t.Error("Expected cancellation fields to be nil on creation")
	}
}

func TestAudit_FinishVerification(t *testing.T) {
	audit := newTestAudit()
	items := []*AuditItem{
		newTestItem(audit.ID, ItemStatusConforming),
		newTestItem(audit.ID, ItemStatusNonConforming),
	}

	if err := audit.FinishVerification(items); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if audit.Status != AuditStatusAwaitingIssueTracking {
		t.Errorf("Expected status %s, got %s", AuditStatusAwaitingIssueTracking, audit.Status)
	}
}

func TestAudit_FinishVerificationPendingItems(t *testing.T) {
	audit := newTestAudit()
	items := []*AuditItem{
		newTestItem(audit.ID, ItemStatusConforming),
		newTestItem(audit.ID, ItemStatusNotStarted),
		newTestItem(audit.ID, ItemStatusConforming),
		newTestItem(audit.ID, ItemStatusObservation),
		newTestItem(audit.ID, ItemStatusNotApplicable),
	}

	err := audit.FinishVerification(items)
	if err == nil {
		t.Fatal("Expected error when items are pending evaluation")
	}

	var dErr *DomainError
	if !errors.As(err, &dErr) || dErr.Kind != ErrKindPreconditionFailed {
		t.Errorf("Expected precondition error, got %v", err)
	}
	if audit.Status != AuditStatusInProgress {
		t.Errorf("Expected status unchanged, got %s", audit.Status)
	}

	// Evaluating the remaining item unblocks the same call.
	items[1].Status = ItemStatusConforming
	if err := audit.FinishVerification(items); err != nil {
		t.Fatalf("Unexpected error after evaluating last item: %v", err)
	}
	if audit.Status != AuditStatusAwaitingIssueTracking {
		t.Errorf("Expected status %s, got %s", AuditStatusAwaitingIssueTracking, audit.Status)
	}
}

func TestAudit_FinishVerificationNoItems(t *testing.T) {
	audit := newTestAudit()

	if err := audit.FinishVerification(nil); err == nil {
		t.Error("Expected error for audit without items")
	}
}

func TestAudit_FinishVerificationFromTerminal(t *testing.T) {
	audit := newTestAudit()
	audit.Status = AuditStatusCompleted

	items := []*AuditItem{newTestItem(audit.ID, ItemStatusConforming)}
	if err := audit.FinishVerification(items); err == nil {
		t.Error("Expected error when finishing verification from terminal status")
	}
}

func TestAudit_CompleteRequiresEvidence(t *testing.T) {
	audit := newTestAudit()
	audit.Status = AuditStatusAwaitingIssueTracking

	evidence := "cracked beam"
	emptyRef := ""
	nc := newTestItem(audit.ID, ItemStatusNonConforming)
	nc.EvidenceText = &evidence
	nc.TraceabilityRef = &emptyRef

	items := []*AuditItem{newTestItem(audit.ID, ItemStatusConforming), nc}

	err := audit.Complete(items)
	if err == nil {
		t.Fatal("Expected error for non-conformance without traceability reference")
	}
	var dErr *DomainError
	if !errors.As(err, &dErr) || dErr.Kind != ErrKindPreconditionFailed {
		t.Errorf("Expected precondition error, got %v", err)
	}
	if audit.CompletionDate != nil {
		t.Error("Expected CompletionDate to remain nil after rejected completion")
	}

	ref := "TRK-123"
	nc.TraceabilityRef = &ref

	before := time.Now()
	if err := audit.Complete(items); err != nil {
		t.Fatalf("Unexpected error after documenting non-conformance: %v", err)
	}
	after := time.Now()

	if audit.Status != AuditStatusCompleted {
		t.Errorf("Expected status %s, got %s", AuditStatusCompleted, audit.Status)
	}
	if audit.CompletionDate == nil {
		t.Fatal("Expected CompletionDate to be set")
	}
	if audit.CompletionDate.Before(before) || audit.CompletionDate.After(after) {
		t.Error("CompletionDate is not within expected range")
	}
}

func TestAudit_CompleteFromWrongStatus(t *testing.T) {
	audit := newTestAudit()
	items := []*AuditItem{newTestItem(audit.ID, ItemStatusConforming)}

	if err := audit.Complete(items); err == nil {
		t.Error("Expected error when completing from IN_PROGRESS")
	}
}

func TestAudit_Cancel(t *testing.T) {
	audit := newTestAudit()
	reason := "project descoped"

	if err := audit.Cancel("auditor-2", &reason); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if audit.Status != AuditStatusCancelled {
		t.Errorf("Expected status %s, got %s", AuditStatusCancelled, audit.Status)
	}
	if audit.CancelledAt == nil {
		t.Error("Expected CancelledAt to be set")
	}
	if audit.CancelledBy == nil || *audit.CancelledBy != "auditor-2" {
		t.Error("Expected CancelledBy to record the actor")
	}
	if audit.CancelReason == nil || *audit.CancelReason != reason {
		t.Error("Expected CancelReason to be stored")
	}

	// Cancelling twice fails.
	if err := audit.Cancel("auditor-2", nil); err != ErrAuditCancelled {
		t.Errorf("Expected ErrAuditCancelled, got %v", err)
	}
}

func TestAudit_CancelWithoutReason(t *testing.T) {
	audit := newTestAudit()
	audit.Status = AuditStatusAwaitingIssueTracking

	if err := audit.Cancel("auditor-1", nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if audit.CancelReason != nil {
		t.Error("Expected CancelReason to stay nil")
	}
}

func TestAudit_CancelCompleted(t *testing.T) {
	audit := newTestAudit()
	audit.Status = AuditStatusCompleted

	if err := audit.Cancel("auditor-1", nil); err != ErrAuditCompleted {
		t.Errorf("Expected ErrAuditCompleted, got %v", err)
	}
}

func TestAudit_CanModifyItems(t *testing.T) {
	tests := []struct {
		status   AuditStatus
		expected bool
	}{
		{AuditStatusNotStarted, false},
		{AuditStatusInProgress, true},
		{AuditStatusAwaitingIssueTracking, true},
		{AuditStatusCompleted, false},
		{AuditStatusCancelled, false},
	}

	for _, tt := range tests {
		audit := newTestAudit()
		audit.Status = tt.status
		if audit.CanModifyItems() != tt.expected {
			t.Errorf("CanModifyItems for %s: expected %v", tt.status, tt.expected)
		}
	}
}

func TestAuditItem_Evaluate(t *testing.T) {
	item := newTestItem("audit-1", ItemStatusNotStarted)
	evidence := "junction box unsealed"
	ref := "TRK-77"

	err := item.Evaluate(ItemEvaluation{
		Status:          ItemStatusNonConforming,
		EvidenceText:    &evidence,
		TraceabilityRef: &ref,
	}, "auditor-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if item.Status != ItemStatusNonConforming {
		t.Errorf("Expected status %s, got %s", ItemStatusNonConforming, item.Status)
	}
	if item.EvaluatedBy == nil || *item.EvaluatedBy != "auditor-1" {
		t.Error("Expected EvaluatedBy to record the actor")
	}
	if item.EvaluatedAt == nil {
		t.Error("Expected EvaluatedAt to be stamped")
	}
	if item.NeedsEvidence() {
		t.Error("Expected documented non-conformance not to need evidence")
	}
}

func TestAuditItem_EvaluateInvalidStatus(t *testing.T) {
	item := newTestItem("audit-1", ItemStatusNotStarted)

	err := item.Evaluate(ItemEvaluation{Status: ItemStatus("BOGUS")}, "auditor-1")
	if err == nil {
		t.Fatal("Expected error for invalid status")
	}
	var dErr *DomainError
	if !errors.As(err, &dErr) || dErr.Kind != ErrKindValidationFailed {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestAuditItem_EvaluatePointsOutOfRange(t *testing.T) {
	item := newTestItem("audit-1", ItemStatusNotStarted)
	points := 12.0

	err := item.Evaluate(ItemEvaluation{Status: ItemStatusConforming, PointsObtained: &points}, "auditor-1")
	if err == nil {
		t.Error("Expected error for points above max")
	}
}

func TestAuditItem_NeedsEvidence(t *testing.T) {
	evidence := "cracked beam"
	blank := "   "

	item := newTestItem("audit-1", ItemStatusNonConforming)
	if !item.NeedsEvidence() {
		t.Error("Expected undocumented non-conformance to need evidence")
	}

	item.EvidenceText = &evidence
	if !item.NeedsEvidence() {
		t.Error("Expected non-conformance without traceability ref to need evidence")
	}

	item.TraceabilityRef = &blank
	if !item.NeedsEvidence() {
		t.Error("Expected whitespace-only traceability ref to count as missing")
	}

	conforming := newTestItem("audit-1", ItemStatusConforming)
	if conforming.NeedsEvidence() {
		t.Error("Expected conforming item never to need evidence")
	}
}
