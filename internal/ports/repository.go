package ports

import (
	"context"

	"github.com/bimcheck/bimcheck/internal/domain"
)

// TransitionCheck re-validates a lifecycle guard against the items read
// inside the transition transaction. Transitions must observe a consistent
// snapshot: two evaluators racing a finishVerification call must not leave
// an unevaluated item behind a transitioned audit.
type TransitionCheck func(items []*domain.AuditItem) error

// AuditRepository defines the interface for audit persistence
type AuditRepository interface {
	// Create saves a new audit together with its snapshotted checklist items
	// and the creation trail entry, in one transaction.
	Create(ctx context.Context, audit *domain.Audit, items []*domain.AuditItem, trail *domain.TrailEntry) error

	// FindByID retrieves an audit by its ID
	FindByID(ctx context.Context, id string) (*domain.Audit, error)

	// List retrieves audits based on filter criteria
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.Audit, error)

	// Count returns the number of audits matching the filter
	Count(ctx context.Context, filter domain.AuditFilter) (int, error)

	// CountByStatus returns the number of audits in the given status
	CountByStatus(ctx context.Context, status domain.AuditStatus) (int, error)

	// ListItems retrieves all checklist items of an audit in display order
	ListItems(ctx context.Context, auditID string) ([]*domain.AuditItem, error)

	// FindItem retrieves one item, scoped to its owning audit
	FindItem(ctx context.Context, auditID, itemID string) (*domain.AuditItem, error)

	// CreateItem saves a custom item and its authorship record
	CreateItem(ctx context.Context, item *domain.AuditItem, custom *domain.CustomItem) error

	// UpdateItem persists an item evaluation
	UpdateItem(ctx context.Context, item *domain.AuditItem) error

	// Transition writes the audit's new status and stamp fields and appends
	// the trail entry in one transaction. The audit row is locked, its
	// current status verified against expectFrom, and check (if non-nil)
	// re-run against the items as read inside the transaction.
	Transition(ctx context.Context, audit *domain.Audit, expectFrom []domain.AuditStatus, trail *domain.TrailEntry, check TransitionCheck) error
}

// TemplateRepository defines read access to the checklist template library
type TemplateRepository interface {
	// FindApplicableItems retrieves the active template items for a
	// discipline whose applicability includes the given audit phase,
	// in display order.
	FindApplicableItems(ctx context.Context, disciplineID, auditPhaseID string) ([]*domain.TemplateItem, error)

	// FindDisciplineByID retrieves a discipline
	FindDisciplineByID(ctx context.Context, id string) (*domain.Discipline, error)

	// FindCategoryByID retrieves a category
	FindCategoryByID(ctx context.Context, id string) (*domain.Category, error)
}

// TrailRepository defines read access to the audit trail
type TrailRepository interface {
	// ListByAudit retrieves trail entries for an audit, newest first
	ListByAudit(ctx context.Context, auditID string, limit int) ([]*domain.TrailEntry, error)
}

// UserRepository defines the interface for auditor account persistence
type UserRepository interface {
	// Create saves a new auditor account
	Create(ctx context.Context, user *domain.User) error

	// FindByID retrieves an auditor by ID
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByEmail retrieves an auditor by email
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
