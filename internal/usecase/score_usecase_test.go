package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bimcheck/bimcheck/internal/domain"
	"github.com/bimcheck/bimcheck/internal/ports"
)

type memStatsCache struct {
	stats *ports.DashboardStats
}

func (c *memStatsCache) Get(ctx context.Context) (*ports.DashboardStats, bool) {
	return c.stats, c.stats != nil
}

func (c *memStatsCache) Set(ctx context.Context, stats *ports.DashboardStats, ttl time.Duration) {
	c.stats = stats
}

func newScoreUseCase(audits *MockAuditRepository, cache ports.StatsCache) *ScoreUseCase {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewScoreUseCase(audits, cache, time.Minute, log)
}

func TestGetAuditScores(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newScoreUseCase(audits, &memStatsCache{})

	audit := testAudit(domain.AuditStatusAwaitingIssueTracking)
	items := testItems(audit.ID, domain.ItemStatusConforming, domain.ItemStatusNonConforming)

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return(items, nil)

	result, err := uc.GetAuditScores(context.Background(), audit.ID)

	assert.NoError(t, err)
	assert.Equal(t, 50.00, result.Overall.Score)
	assert.Equal(t, 10.0, result.Overall.ObtainedPoints)
	assert.Equal(t, 20.0, result.Overall.PossiblePoints)
}

func TestGetAuditScores_AuditNotFound(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newScoreUseCase(audits, &memStatsCache{})

	audits.On("FindByID", mock.Anything, "missing").Return(nil, domain.ErrAuditNotFound)

	_, err := uc.GetAuditScores(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrAuditNotFound)
}

func TestGetDashboardStats_CountsAndCache(t *testing.T) {
	audits := new(MockAuditRepository)
	cache := &memStatsCache{}
	uc := newScoreUseCase(audits, cache)

	audits.On("CountByStatus", mock.Anything, domain.AuditStatusNotStarted).Return(1, nil).Once()
	audits.On("CountByStatus", mock.Anything, domain.AuditStatusInProgress).Return(3, nil).Once()
	audits.On("CountByStatus", mock.Anything, domain.AuditStatusAwaitingIssueTracking).Return(2, nil).Once()
	audits.On("CountByStatus", mock.Anything, domain.AuditStatusCompleted).Return(5, nil).Once()
	audits.On("CountByStatus", mock.Anything, domain.AuditStatusCancelled).Return(1, nil).Once()

	first := testAudit(domain.AuditStatusCompleted)
	second := testAudit(domain.AuditStatusCompleted)
	audits.On("List", mock.Anything, mock.Anything).Return([]*domain.Audit{first, second}, nil).Once()
	audits.On("ListItems", mock.Anything, first.ID).Return(testItems(first.ID, domain.ItemStatusConforming), nil).Once()
	audits.On("ListItems", mock.Anything, second.ID).Return(testItems(second.ID, domain.ItemStatusConforming, domain.ItemStatusNonConforming), nil).Once()

	stats, err := uc.GetDashboardStats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 12, stats.TotalAudits)
	assert.Equal(t, 3, stats.CountsByStatus[string(domain.AuditStatusInProgress)])
	// 100 and 50 average to 75.
	assert.Equal(t, 75.00, stats.MeanCompletedScore)

	// Second call is served from the cache; the Once expectations above
	// would fail if the repository were hit again.
	cached, err := uc.GetDashboardStats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, stats, cached)
	audits.AssertExpectations(t)
}
