package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

// meanScoreSample caps how many completed audits feed the dashboard mean.
const meanScoreSample = 100

// ScoreUseCase serves the read side: weighted compliance scores for a single
// audit and the dashboard summary. Dashboards poll, so the summary is cached
// with a short TTL.
type ScoreUseCase struct {
	audits   ports.AuditRepository
	cache    ports.StatsCache
	cacheTTL time.Duration
	log      *logrus.Logger
}

// NewScoreUseCase creates a new score use case
func NewScoreUseCase(audits ports.AuditRepository, cache ports.StatsCache, cacheTTL time.Duration, log *logrus.Logger) *ScoreUseCase {
	return &ScoreUseCase{
		audits:   audits,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// GetAuditScores computes the score breakdown for one audit.
func (uc *ScoreUseCase) GetAuditScores(ctx context.Context, auditID string) (*domain.ScoreResult, error) {
	if auditID == "" {
		return nil, domain.NewValidationError("audit ID is required")
	}

	if _, err := uc.audits.FindByID(ctx, auditID); err != nil {
		return nil, err
	}

	items, err := uc.audits.ListItems(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit items: %w", err)
	}

	result := domain.ComputeScores(items)
	return &result, nil
}

// GetDashboardStats returns audit counts by status and the mean score of
// recently completed audits.
func (uc *ScoreUseCase) GetDashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	if cached, ok := uc.cache.Get(ctx); ok {
		return cached, nil
	}

	statuses := []domain.AuditStatus{
		domain.AuditStatusNotStarted,
		domain.AuditStatusInProgress,
		domain.AuditStatusAwaitingIssueTracking,
		domain.AuditStatusCompleted,
		domain.AuditStatusCancelled,
	}

	stats := &ports.DashboardStats{
		CountsByStatus: make(map[string]int, len(statuses)),
		GeneratedAt:    time.Now(),
	}

	for _, status := range statuses {
		count, err := uc.audits.CountByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to count audits by status %s: %w", status, err)
		}
		stats.CountsByStatus[string(status)] = count
		stats.TotalAudits += count
	}

	mean, err := uc.meanCompletedScore(ctx)
	if err != nil {
		return nil, err
	}
	stats.MeanCompletedScore = mean

	uc.cache.Set(ctx, stats, uc.cacheTTL)
	return stats, nil
}

// meanCompletedScore averages the overall score of the most recently
// completed audits. Bounded to a page so a large history cannot make the
// dashboard slow; the cache absorbs the per-audit item reads.
func (uc *ScoreUseCase) meanCompletedScore(ctx context.Context) (float64, error) {
	completed := domain.AuditStatusCompleted
	audits, err := uc.audits.List(ctx, domain.AuditFilter{Status: &completed, Limit: meanScoreSample})
	if err != nil {
		return 0, fmt.Errorf("failed to list completed audits: %w", err)
	}
	if len(audits) == 0 {
		return 0, nil
	}

	var sum float64
	for _, audit := range audits {
		items, err := uc.audits.ListItems(ctx, audit.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to list items for audit %s: %w", audit.ID, err)
		}
		sum += domain.ComputeScores(items).Overall.Score
	}
	return math.Round(sum/float64(len(audits))*100) / 100, nil
}
