package ports

import (
	"context"
	"time"
)

// TokenClaims carries the identity resolved from an access token.
type TokenClaims struct {
	UserID string
	Role   string
}

// TokenService issues and validates access tokens for auditors.
type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// PasswordService hashes and verifies auditor credentials.
type PasswordService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) error
}

// DashboardStats is the poll-friendly summary served to dashboards.
type DashboardStats struct {
	CountsByStatus     map[string]int `json:"counts_by_status"`
	TotalAudits        int            `json:"total_audits"`
	MeanCompletedScore float64        `json:"mean_completed_score"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// StatsCache caches dashboard stats between polls.
type StatsCache interface {
	Get(ctx context.Context) (*DashboardStats, bool)
	Set(ctx context.Context, stats *DashboardStats, ttl time.Duration)
}
