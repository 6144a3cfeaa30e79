package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

// PostgresTrailRepository implements read access to the audit trail. Writes
// happen through the audit repository, inside the transition transactions.
type PostgresTrailRepository struct {
	db *sql.DB
}

// NewPostgresTrailRepository creates a new PostgreSQL trail repository
func NewPostgresTrailRepository(db *sql.DB) ports.TrailRepository {
	return &PostgresTrailRepository{db: db}
}

// ListByAudit retrieves trail entries for an audit, newest first
func (r *PostgresTrailRepository) ListByAudit(ctx context.Context, auditID string, limit int) ([]*domain.TrailEntry, error) {
	query := `
		SELECT id, audit_id, field, old_value, new_value, actor_id, at
		FROM audit_trail
		WHERE audit_id = $1
		ORDER BY at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, auditID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit trail: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TrailEntry
	for rows.Next() {
		var e domain.TrailEntry
		err := rows.Scan(&e.ID, &e.AuditID, &e.Field, &e.OldValue, &e.NewValue, &e.ActorID, &e.At)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trail entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
