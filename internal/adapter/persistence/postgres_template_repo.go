package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

// PostgresTemplateRepository implements TemplateRepository using PostgreSQL.
// The template library is read-only from the service's perspective; it is
// maintained by cmd/seed.
type PostgresTemplateRepository struct {
	db *sql.DB
}

// NewPostgresTemplateRepository creates a new PostgreSQL template repository
func NewPostgresTemplateRepository(db *sql.DB) ports.TemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

// FindApplicableItems retrieves the active template items for a discipline
// whose applicability includes the given audit phase, in display order.
func (r *PostgresTemplateRepository) FindApplicableItems(ctx context.Context, disciplineID, auditPhaseID string) ([]*domain.TemplateItem, error) {
	query := `
		SELECT t.id, t.discipline_id, t.category_id, t.description, t.weight, t.max_points, t.display_order, t.active
		FROM template_items t
		JOIN template_item_phases p ON p.template_item_id = t.id
		WHERE t.discipline_id = $1 AND p.audit_phase_id = $2 AND t.active = TRUE
		ORDER BY t.display_order
	`

	rows, err := r.db.QueryContext(ctx, query, disciplineID, auditPhaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query template items: %w", err)
	}
	defer rows.Close()

	var items []*domain.TemplateItem
	for rows.Next() {
		var item domain.TemplateItem
		err := rows.Scan(
			&item.ID,
			&item.DisciplineID,
			&item.CategoryID,
			&item.Description,
			&item.Weight,
			&item.MaxPoints,
			&item.DisplayOrder,
			&item.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// FindDisciplineByID retrieves a discipline
func (r *PostgresTemplateRepository) FindDisciplineByID(ctx context.Context, id string) (*domain.Discipline, error) {
	var d domain.Discipline
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, active FROM disciplines WHERE id = $1`, id,
	).Scan(&d.ID, &d.Code, &d.Name, &d.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("discipline not found")
		}
		return nil, fmt.Errorf("failed to find discipline: %w", err)
	}
	return &d, nil
}

// FindCategoryByID retrieves a category
func (r *PostgresTemplateRepository) FindCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, discipline_id, code, name, display_order FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.DisciplineID, &c.Code, &c.Name, &c.DisplayOrder)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError("category not found")
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &c, nil
}
