package domain

// Discipline is a library-defined engineering discipline (structural,
// electrical, HVAC, ...). Read-only lookup from the core's perspective.
type Discipline struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Category groups checklist entries within a discipline for reporting.
type Category struct {
	ID           string `json:"id"`
	DisciplineID string `json:"discipline_id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

// AuditPhase is a library-defined project stage at which audits run
// (design review, pre-construction, handover, ...).
type AuditPhase struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// TemplateItem is a library checklist entry used to seed new audits. Its
// weight and max points are copied onto audit items at creation time.
type TemplateItem struct {
	ID           string  `json:"id"`
	DisciplineID string  `json:"discipline_id"`
	CategoryID   string  `json:"category_id"`
	Description  string  `json:"description"`
	Weight       int     `json:"weight"`
	MaxPoints    float64 `json:"max_points"`
	DisplayOrder int     `json:"display_order"`
	Active       bool    `json:"active"`
}
