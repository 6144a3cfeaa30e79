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

// Mock implementations

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, audit *domain.Audit, items []*domain.AuditItem, trail *domain.TrailEntry) error {
	args := m.Called(ctx, audit, items, trail)
	return args.Error(0)
}

func (m *MockAuditRepository) FindByID(ctx context.Context, id string) (*domain.Audit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Audit), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.Audit, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Audit), args.Error(1)
}

func (m *MockAuditRepository) Count(ctx context.Context, filter domain.AuditFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditRepository) CountByStatus(ctx context.Context, status domain.AuditStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditRepository) ListItems(ctx context.Context, auditID string) ([]*domain.AuditItem, error) {
	args := m.Called(ctx, auditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditItem), args.Error(1)
}

func (m *MockAuditRepository) FindItem(ctx context.Context, auditID, itemID string) (*domain.AuditItem, error) {
	args := m.Called(ctx, auditID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditItem), args.Error(1)
}

func (m *MockAuditRepository) CreateItem(ctx context.Context, item *domain.AuditItem, custom *domain.CustomItem) error {
	args := m.Called(ctx, item, custom)
	return args.Error(0)
}

func (m *MockAuditRepository) UpdateItem(ctx context.Context, item *domain.AuditItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockAuditRepository) Transition(ctx context.Context, audit *domain.Audit, expectFrom []domain.AuditStatus, trail *domain.TrailEntry, check ports.TransitionCheck) error {
	args := m.Called(ctx, audit, expectFrom, trail, check)
	return args.Error(0)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) FindApplicableItems(ctx context.Context, disciplineID, auditPhaseID string) ([]*domain.TemplateItem, error) {
	args := m.Called(ctx, disciplineID, auditPhaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TemplateItem), args.Error(1)
}

func (m *MockTemplateRepository) FindDisciplineByID(ctx context.Context, id string) (*domain.Discipline, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discipline), args.Error(1)
}

func (m *MockTemplateRepository) FindCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

type MockTrailRepository struct {
	mock.Mock
}

func (m *MockTrailRepository) ListByAudit(ctx context.Context, auditID string, limit int) ([]*domain.TrailEntry, error) {
	args := m.Called(ctx, auditID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrailEntry), args.Error(1)
}

func newTestUseCase(audits *MockAuditRepository, templates *MockTemplateRepository, trail *MockTrailRepository) *AuditUseCase {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewAuditUseCase(audits, templates, trail, log)
}

func testAudit(status domain.AuditStatus) *domain.Audit {
	audit := domain.NewAudit("work-1", "phase-1", "disc-1", "aphase-1", "auditor-1", time.Now(), nil)
	audit.Status = status
	return audit
}

func testItems(auditID string, statuses ...domain.ItemStatus) []*domain.AuditItem {
	tpl := &domain.TemplateItem{
		ID:           "tpl-1",
		DisciplineID: "disc-1",
		CategoryID:   "cat-1",
		Description:  "Clash detection run on federated model",
		Weight:       1,
		MaxPoints:    10,
		Active:       true,
	}
	items := make([]*domain.AuditItem, 0, len(statuses))
	for i, status := range statuses {
		item := domain.NewAuditItem(auditID, tpl, i+1)
		item.Status = status
		items = append(items, item)
	}
	return items
}

func TestCreateAudit_Success(t *testing.T) {
	audits := new(MockAuditRepository)
	templates := new(MockTemplateRepository)
	uc := newTestUseCase(audits, templates, new(MockTrailRepository))

	templates.On("FindApplicableItems", mock.Anything, "disc-1", "aphase-1").Return([]*domain.TemplateItem{
		{ID: "tpl-1", DisciplineID: "disc-1", CategoryID: "cat-1", Description: "LOD check", Weight: 2, MaxPoints: 10, Active: true},
		{ID: "tpl-2", DisciplineID: "disc-1", CategoryID: "cat-1", Description: "Naming convention", Weight: 1, MaxPoints: 5, Active: true},
	}, nil)
	audits.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	audit, err := uc.CreateAudit(context.Background(), CreateAuditRequest{
		WorkID:       "work-1",
		PhaseID:      "phase-1",
		DisciplineID: "disc-1",
		AuditPhaseID: "aphase-1",
		AuditorID:    "auditor-1",
		StartDate:    time.Now(),
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.AuditStatusInProgress, audit.Status)

	createdItems := audits.Calls[0].Arguments.Get(2).([]*domain.AuditItem)
	assert.Len(t, createdItems, 2)
	assert.Equal(t, 2, createdItems[0].Weight)
	assert.Equal(t, 10.0, createdItems[0].MaxPoints)
	assert.Equal(t, domain.ItemStatusNotStarted, createdItems[0].Status)
	audits.AssertExpectations(t)
	templates.AssertExpectations(t)
}

func TestCreateAudit_NoChecklistConfigured(t *testing.T) {
	audits := new(MockAuditRepository)
	templates := new(MockTemplateRepository)
	uc := newTestUseCase(audits, templates, new(MockTrailRepository))

	templates.On("FindApplicableItems", mock.Anything, "disc-1", "aphase-1").Return([]*domain.TemplateItem{}, nil)

	_, err := uc.CreateAudit(context.Background(), CreateAuditRequest{
		WorkID:       "work-1",
		PhaseID:      "phase-1",
		DisciplineID: "disc-1",
		AuditPhaseID: "aphase-1",
		AuditorID:    "auditor-1",
		StartDate:    time.Now(),
	})

	assert.ErrorIs(t, err, domain.ErrNoChecklistItems)
	audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAudit_MissingFields(t *testing.T) {
	uc := newTestUseCase(new(MockAuditRepository), new(MockTemplateRepository), new(MockTrailRepository))

	_, err := uc.CreateAudit(context.Background(), CreateAuditRequest{WorkID: "work-1"})

	var dErr *domain.DomainError
	assert.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrKindValidationFailed, dErr.Kind)
}

func TestFinishVerification_PendingItems(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusInProgress)
	items := testItems(audit.ID,
		domain.ItemStatusConforming,
		domain.ItemStatusNotStarted,
		domain.ItemStatusConforming,
		domain.ItemStatusObservation,
		domain.ItemStatusNotApplicable,
	)

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return(items, nil)

	_, err := uc.FinishVerification(context.Background(), audit.ID, "auditor-1")

	var dErr *domain.DomainError
	assert.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrKindPreconditionFailed, dErr.Kind)
	assert.Contains(t, dErr.Message, "pending evaluation")
	assert.Contains(t, dErr.Message, "1 of 5")
	audits.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinishVerification_Success(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusInProgress)
	items := testItems(audit.ID, domain.ItemStatusConforming, domain.ItemStatusNonConforming)

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return(items, nil)
	audits.On("Transition", mock.Anything, audit, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := uc.FinishVerification(context.Background(), audit.ID, "auditor-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.AuditStatusAwaitingIssueTracking, result.Status)

	trail := audits.Calls[2].Arguments.Get(3).(*domain.TrailEntry)
	assert.Equal(t, "status", trail.Field)
	assert.Equal(t, string(domain.AuditStatusInProgress), trail.OldValue)
	assert.Equal(t, string(domain.AuditStatusAwaitingIssueTracking), trail.NewValue)
	assert.Equal(t, "auditor-1", trail.ActorID)
}

func TestCompleteAudit_UndocumentedNonConformance(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusAwaitingIssueTracking)
	evidence := "cracked beam"
	items := testItems(audit.ID, domain.ItemStatusNonConforming)
	items[0].EvidenceText = &evidence // traceability ref still missing

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return(items, nil)

	_, err := uc.CompleteAudit(context.Background(), audit.ID, "auditor-1")

	var dErr *domain.DomainError
	assert.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrKindPreconditionFailed, dErr.Kind)
	assert.Contains(t, dErr.Message, "evidence/traceability")
	assert.Nil(t, audit.CompletionDate)
}

func TestCompleteAudit_Success(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusAwaitingIssueTracking)
	evidence := "cracked beam"
	ref := "TRK-123"
	items := testItems(audit.ID, domain.ItemStatusNonConforming, domain.ItemStatusConforming)
	items[0].EvidenceText = &evidence
	items[0].TraceabilityRef = &ref

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return(items, nil)
	audits.On("Transition", mock.Anything, audit, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := uc.CompleteAudit(context.Background(), audit.ID, "auditor-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.AuditStatusCompleted, result.Status)
	assert.NotNil(t, result.CompletionDate)
}

func TestCancelAudit_AlreadyCancelled(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusCancelled)
	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return([]*domain.AuditItem{}, nil)

	_, err := uc.CancelAudit(context.Background(), audit.ID, "auditor-1", nil)

	assert.ErrorIs(t, err, domain.ErrAuditCancelled)
}

func TestCancelAudit_Success(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusAwaitingIssueTracking)
	reason := "project descoped"

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return([]*domain.AuditItem{}, nil)
	audits.On("Transition", mock.Anything, audit, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := uc.CancelAudit(context.Background(), audit.ID, "auditor-2", &reason)

	assert.NoError(t, err)
	assert.Equal(t, domain.AuditStatusCancelled, result.Status)
	assert.Equal(t, "auditor-2", *result.CancelledBy)
	assert.Equal(t, reason, *result.CancelReason)
}

func TestAddCustomItem_StateGate(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusCompleted)
	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)

	_, err := uc.AddCustomItem(context.Background(), audit.ID, AddCustomItemRequest{Description: "Fire stopping at risers"}, "auditor-1")

	assert.ErrorIs(t, err, domain.ErrItemsNotEditable)
}

func TestAddCustomItem_Defaults(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusInProgress)
	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("ListItems", mock.Anything, audit.ID).Return(testItems(audit.ID, domain.ItemStatusConforming), nil)
	audits.On("CreateItem", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	item, err := uc.AddCustomItem(context.Background(), audit.ID, AddCustomItemRequest{Description: "Fire stopping at risers"}, "auditor-1")

	assert.NoError(t, err)
	assert.True(t, item.IsCustom)
	assert.Equal(t, defaultCustomItemWeight, item.Weight)
	assert.Equal(t, defaultCustomItemMaxPoints, item.MaxPoints)
	assert.Equal(t, 2, item.DisplayOrder)

	custom := audits.Calls[2].Arguments.Get(2).(*domain.CustomItem)
	assert.Equal(t, item.ID, custom.AuditItemID)
	assert.Equal(t, "auditor-1", custom.CreatedBy)
}

func TestUpdateItem_NotFound(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusInProgress)
	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("FindItem", mock.Anything, audit.ID, "missing").Return(nil, domain.ErrItemNotFound)

	_, err := uc.UpdateItem(context.Background(), audit.ID, "missing", UpdateItemRequest{Status: domain.ItemStatusConforming}, "auditor-1")

	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestUpdateItem_Evaluates(t *testing.T) {
	audits := new(MockAuditRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), new(MockTrailRepository))

	audit := testAudit(domain.AuditStatusInProgress)
	item := testItems(audit.ID, domain.ItemStatusNotStarted)[0]

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	audits.On("FindItem", mock.Anything, audit.ID, item.ID).Return(item, nil)
	audits.On("UpdateItem", mock.Anything, item).Return(nil)

	evidence := "duct penetration unsealed"
	result, err := uc.UpdateItem(context.Background(), audit.ID, item.ID, UpdateItemRequest{
		Status:       domain.ItemStatusNonConforming,
		EvidenceText: &evidence,
	}, "auditor-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.ItemStatusNonConforming, result.Status)
	assert.Equal(t, "auditor-1", *result.EvaluatedBy)
	assert.NotNil(t, result.EvaluatedAt)
}

func TestGetTrail(t *testing.T) {
	audits := new(MockAuditRepository)
	trail := new(MockTrailRepository)
	uc := newTestUseCase(audits, new(MockTemplateRepository), trail)

	audit := testAudit(domain.AuditStatusInProgress)
	entries := []*domain.TrailEntry{
		domain.NewStatusTrailEntry(audit.ID, domain.AuditStatusInProgress, domain.AuditStatusAwaitingIssueTracking, "auditor-1"),
	}

	audits.On("FindByID", mock.Anything, audit.ID).Return(audit, nil)
	trail.On("ListByAudit", mock.Anything, audit.ID, 50).Return(entries, nil)

	result, err := uc.GetTrail(context.Background(), audit.ID, 0)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
}
