package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

const auditColumns = `id, work_id, phase_id, discipline_id, audit_phase_id, status, start_date,
	planned_end_date, completion_date, cancelled_at, cancelled_by, cancel_reason,
	responsible_auditor_id, created_at, updated_at`

const itemColumns = `id, audit_id, template_item_id, discipline_id, category_id, description, status,
	evidence_text, traceability_ref, next_review_date, weight, max_points, points_obtained,
	evaluated_by, evaluated_at, is_custom, display_order, created_at, updated_at`

// PostgresAuditRepository implements AuditRepository using PostgreSQL
type PostgresAuditRepository struct {
	db *sql.DB
}

// NewPostgresAuditRepository creates a new PostgreSQL audit repository
func NewPostgresAuditRepository(db *sql.DB) ports.AuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Create saves a new audit, its checklist snapshot and the creation trail
// entry in one transaction.
func (r *PostgresAuditRepository) Create(ctx context.Context, audit *domain.Audit, items []*domain.AuditItem, trail *domain.TrailEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO audits (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.ExecContext(ctx, query,
		audit.ID,
		audit.WorkID,
		audit.PhaseID,
		audit.DisciplineID,
		audit.AuditPhaseID,
		string(audit.Status),
		audit.StartDate,
		audit.PlannedEndDate,
		audit.CompletionDate,
		audit.CancelledAt,
		audit.CancelledBy,
		audit.CancelReason,
		audit.ResponsibleAuditorID,
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}

	for _, item := range items {
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if trail != nil {
		if err := insertTrail(ctx, tx, trail); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindByID retrieves an audit by its ID
func (r *PostgresAuditRepository) FindByID(ctx context.Context, id string) (*domain.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE id = $1`
	return scanAudit(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves audits based on filter criteria
func (r *PostgresAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE 1=1`
	conditions, args := buildAuditConditions(filter)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var audits []*domain.Audit
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}

// Count returns the number of audits matching the filter
func (r *PostgresAuditRepository) Count(ctx context.Context, filter domain.AuditFilter) (int, error) {
	query := `SELECT COUNT(*) FROM audits WHERE 1=1`
	conditions, args := buildAuditConditions(filter)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audits: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of audits in the given status
func (r *PostgresAuditRepository) CountByStatus(ctx context.Context, status domain.AuditStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audits by status: %w", err)
	}
	return count, nil
}

// ListItems retrieves all checklist items of an audit in display order
func (r *PostgresAuditRepository) ListItems(ctx context.Context, auditID string) ([]*domain.AuditItem, error) {
	query := `SELECT ` + itemColumns + ` FROM audit_items WHERE audit_id = $1 ORDER BY display_order`

	rows, err := r.db.QueryContext(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// FindItem retrieves one item, scoped to its owning audit
func (r *PostgresAuditRepository) FindItem(ctx context.Context, auditID, itemID string) (*domain.AuditItem, error) {
	query := `SELECT ` + itemColumns + ` FROM audit_items WHERE id = $1 AND audit_id = $2`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, itemID, auditID))
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem saves a custom item and its authorship record
func (r *PostgresAuditRepository) CreateItem(ctx context.Context, item *domain.AuditItem, custom *domain.CustomItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertItem(ctx, tx, item); err != nil {
		return err
	}

	if custom != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO custom_items (id, audit_id, audit_item_id, description, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			custom.ID, custom.AuditID, custom.AuditItemID, custom.Description, custom.CreatedBy, custom.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create custom item record: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateItem persists an item evaluation
func (r *PostgresAuditRepository) UpdateItem(ctx context.Context, item *domain.AuditItem) error {
	query := `
		UPDATE audit_items
		SET status = $2, evidence_text = $3, traceability_ref = $4, next_review_date = $5,
			points_obtained = $6, evaluated_by = $7, evaluated_at = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		item.ID,
		string(item.Status),
		item.EvidenceText,
		item.TraceabilityRef,
		item.NextReviewDate,
		item.PointsObtained,
		item.EvaluatedBy,
		item.EvaluatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Transition writes the audit's new status and stamp fields and appends the
// trail entry in one transaction. The audit row is locked first; the guard
// is re-run against the items as read under that lock so a racing item
// write cannot slip an unevaluated item behind the transition.
func (r *PostgresAuditRepository) Transition(ctx context.Context, audit *domain.Audit, expectFrom []domain.AuditStatus, trail *domain.TrailEntry, check ports.TransitionCheck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM audits WHERE id = $1 FOR UPDATE`, audit.ID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrAuditNotFound
		}
		return fmt.Errorf("failed to lock audit: %w", err)
	}

	if !statusIn(domain.AuditStatus(current), expectFrom) {
		return domain.NewPreconditionErrorf("audit status changed concurrently: now %s", current)
	}

	if check != nil {
		rows, err := tx.QueryContext(ctx, `SELECT `+itemColumns+` FROM audit_items WHERE audit_id = $1 ORDER BY display_order FOR UPDATE`, audit.ID)
		if err != nil {
			return fmt.Errorf("failed to read items for transition: %w", err)
		}
		items, err := collectItems(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if err := check(items); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE audits
		SET status = $2, completion_date = $3, cancelled_at = $4, cancelled_by = $5,
			cancel_reason = $6, updated_at = $7
		WHERE id = $1`,
		audit.ID,
		string(audit.Status),
		audit.CompletionDate,
		audit.CancelledAt,
		audit.CancelledBy,
		audit.CancelReason,
		audit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update audit status: %w", err)
	}

	if err := insertTrail(ctx, tx, trail); err != nil {
		return err
	}

	return tx.Commit()
}

// Helpers

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAudit(row rowScanner) (*domain.Audit, error) {
	var audit domain.Audit
	var plannedEnd, completion, cancelledAt sql.NullTime
	var cancelledBy, cancelReason sql.NullString

	err := row.Scan(
		&audit.ID,
		&audit.WorkID,
		&audit.PhaseID,
		&audit.DisciplineID,
		&audit.AuditPhaseID,
		&audit.Status,
		&audit.StartDate,
		&plannedEnd,
		&completion,
		&cancelledAt,
		&cancelledBy,
		&cancelReason,
		&audit.ResponsibleAuditorID,
		&audit.CreatedAt,
		&audit.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrAuditNotFound
		}
		return nil, fmt.Errorf("failed to scan audit: %w", err)
	}

	if plannedEnd.Valid {
		audit.PlannedEndDate = &plannedEnd.Time
	}
	if completion.Valid {
		audit.CompletionDate = &completion.Time
	}
	if cancelledAt.Valid {
		audit.CancelledAt = &cancelledAt.Time
	}
	if cancelledBy.Valid {
		audit.CancelledBy = &cancelledBy.String
	}
	if cancelReason.Valid {
		audit.CancelReason = &cancelReason.String
	}
	return &audit, nil
}

func scanItem(row rowScanner) (*domain.AuditItem, error) {
	var item domain.AuditItem
	var templateItemID, disciplineID, categoryID, evidence, traceRef, evaluatedBy sql.NullString
	var nextReview, evaluatedAt sql.NullTime
	var pointsObtained sql.NullFloat64

	err := row.Scan(
		&item.ID,
		&item.AuditID,
		&templateItemID,
		&disciplineID,
		&categoryID,
		&item.Description,
		&item.Status,
		&evidence,
		&traceRef,
		&nextReview,
		&item.Weight,
		&item.MaxPoints,
		&pointsObtained,
		&evaluatedBy,
		&evaluatedAt,
		&item.IsCustom,
		&item.DisplayOrder,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to scan audit item: %w", err)
	}

	if templateItemID.Valid {
		item.TemplateItemID = &templateItemID.String
	}
	if disciplineID.Valid {
		item.DisciplineID = &disciplineID.String
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.String
	}
	if evidence.Valid {
		item.EvidenceText = &evidence.String
	}
	if traceRef.Valid {
		item.TraceabilityRef = &traceRef.String
	}
	if nextReview.Valid {
		item.NextReviewDate = &nextReview.Time
	}
	if pointsObtained.Valid {
		item.PointsObtained = &pointsObtained.Float64
	}
	if evaluatedBy.Valid {
		item.EvaluatedBy = &evaluatedBy.String
	}
	if evaluatedAt.Valid {
		item.EvaluatedAt = &evaluatedAt.Time
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*domain.AuditItem, error) {
	var items []*domain.AuditItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertItem(ctx context.Context, tx *sql.Tx, item *domain.AuditItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		item.ID,
		item.AuditID,
		item.TemplateItemID,
		item.DisciplineID,
		item.CategoryID,
		item.Description,
		string(item.Status),
		item.EvidenceText,
		item.TraceabilityRef,
		item.NextReviewDate,
		item.Weight,
		item.MaxPoints,
		item.PointsObtained,
		item.EvaluatedBy,
		item.EvaluatedAt,
		item.IsCustom,
		item.DisplayOrder,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit item: %w", err)
	}
	return nil
}

func insertTrail(ctx context.Context, tx *sql.Tx, trail *domain.TrailEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_trail (id, audit_id, field, old_value, new_value, actor_id, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		trail.ID, trail.AuditID, trail.Field, trail.OldValue, trail.NewValue, trail.ActorID, trail.At,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit trail: %w", err)
	}
	return nil
}

func buildAuditConditions(filter domain.AuditFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.WorkID != nil {
		conditions = append(conditions, fmt.Sprintf("work_id = $%d", argIndex))
		args = append(args, *filter.WorkID)
		argIndex++
	}
	if filter.DisciplineID != nil {
		conditions = append(conditions, fmt.Sprintf("discipline_id = $%d", argIndex))
		args = append(args, *filter.DisciplineID)
		argIndex++
	}
	if filter.AuditorID != nil {
		conditions = append(conditions, fmt.Sprintf("responsible_auditor_id = $%d", argIndex))
		args = append(args, *filter.AuditorID)
		argIndex++
	}
	return conditions, args
}

func statusIn(status domain.AuditStatus, set []domain.AuditStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
