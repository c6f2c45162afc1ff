package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/api/v1/services"
	"voicescribe/internal/app/analysis"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
)

// MockServices contains all mock services for handler tests
type MockServices struct {
	TranscriptionService *MockTranscriptionService
	AnalysisService      *MockAnalysisService
	UsageService         *MockUsageService
	WebhookService       *MockWebhookService
}

// NewMockServices creates a new instance of mock services
func NewMockServices(t *testing.T) *MockServices {
	return &MockServices{
		TranscriptionService: NewMockTranscriptionService(t),
		AnalysisService:      NewMockAnalysisService(t),
		UsageService:         NewMockUsageService(t),
		WebhookService:       NewMockWebhookService(t),
	}
}

// AssertExpectations checks every mock
func (m *MockServices) AssertExpectations(t *testing.T) {
	m.TranscriptionService.AssertExpectations(t)
	m.AnalysisService.AssertExpectations(t)
	m.UsageService.AssertExpectations(t)
	m.WebhookService.AssertExpectations(t)
}

// MockTranscriptionService is a mock implementation of TranscriptionService
type MockTranscriptionService struct {
	mock.Mock
}

var _ services.TranscriptionService = (*MockTranscriptionService)(nil)

func NewMockTranscriptionService(t *testing.T) *MockTranscriptionService {
	m := &MockTranscriptionService{}
	m.Test(t)
	return m
}

func (m *MockTranscriptionService) Upload(ctx context.Context, in services.UploadInput) (*dto.UploadResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UploadResponse), args.Error(1)
}

func (m *MockTranscriptionService) GetTranscription(ctx context.Context, r lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	return m.response(m.Called(ctx, r, id))
}

func (m *MockTranscriptionService) ListTranscriptions(ctx context.Context, r lifecycle.Requester, query dto.ListTranscriptionsQuery) (*dto.PaginatedTranscriptionsResponse, error) {
	args := m.Called(ctx, r, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedTranscriptionsResponse), args.Error(1)
}

func (m *MockTranscriptionService) Start(ctx context.Context, r lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	return m.response(m.Called(ctx, r, id))
}

func (m *MockTranscriptionService) Cancel(ctx context.Context, r lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	return m.response(m.Called(ctx, r, id))
}

func (m *MockTranscriptionService) Retry(ctx context.Context, r lifecycle.Requester, id int64) (*dto.TranscriptionResponse, error) {
	return m.response(m.Called(ctx, r, id))
}

func (m *MockTranscriptionService) Subscribe(ctx context.Context, r lifecycle.Requester, id int64) (*dto.TranscriptionResponse, <-chan events.Event, func(), error) {
	args := m.Called(ctx, r, id)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(*dto.TranscriptionResponse), args.Get(1).(chan events.Event), args.Get(2).(func()), args.Error(3)
}

func (m *MockTranscriptionService) response(args mock.Arguments) (*dto.TranscriptionResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TranscriptionResponse), args.Error(1)
}

// MockAnalysisService is a mock implementation of AnalysisService. Stages
// are replayed to the callback before the mocked result is returned.
type MockAnalysisService struct {
	mock.Mock
	Stages []analysis.Stage
}

var _ services.AnalysisService = (*MockAnalysisService)(nil)

func NewMockAnalysisService(t *testing.T) *MockAnalysisService {
	m := &MockAnalysisService{}
	m.Test(t)
	return m
}

func (m *MockAnalysisService) Analyze(ctx context.Context, r lifecycle.Requester, id int64, onStage func(analysis.Stage)) (*model.Analysis, error) {
	args := m.Called(ctx, r, id)
	if args.Error(1) == nil {
		for _, s := range m.Stages {
			onStage(s)
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *MockAnalysisService) Ask(ctx context.Context, r lifecycle.Requester, id int64, question string) (*dto.AskResponse, error) {
	args := m.Called(ctx, r, id, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AskResponse), args.Error(1)
}

// MockUsageService is a mock implementation of UsageService
type MockUsageService struct {
	mock.Mock
}

var _ services.UsageService = (*MockUsageService)(nil)

func NewMockUsageService(t *testing.T) *MockUsageService {
	m := &MockUsageService{}
	m.Test(t)
	return m
}

func (m *MockUsageService) Usage(ctx context.Context, userID int64) (*quota.Snapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quota.Snapshot), args.Error(1)
}

func (m *MockUsageService) GetUserLimits(ctx context.Context, userID int64) (*dto.UserLimitsResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserLimitsResponse), args.Error(1)
}

func (m *MockUsageService) SetUserLimits(ctx context.Context, userID int64, o model.LimitOverrides) (*dto.UserLimitsResponse, error) {
	args := m.Called(ctx, userID, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserLimitsResponse), args.Error(1)
}

func (m *MockUsageService) ResetUsage(ctx context.Context, userID int64, period model.PeriodType) error {
	return m.Called(ctx, userID, period).Error(0)
}

func (m *MockUsageService) GetDefaultLimits(ctx context.Context) (model.Limits, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Limits), args.Error(1)
}

func (m *MockUsageService) SetDefaultLimits(ctx context.Context, limits model.Limits) (model.Limits, error) {
	args := m.Called(ctx, limits)
	return args.Get(0).(model.Limits), args.Error(1)
}

// MockWebhookService is a mock implementation of WebhookService
type MockWebhookService struct {
	mock.Mock
}

var _ services.WebhookService = (*MockWebhookService)(nil)

func NewMockWebhookService(t *testing.T) *MockWebhookService {
	m := &MockWebhookService{}
	m.Test(t)
	return m
}

func (m *MockWebhookService) HandleTranscriptUpdate(ctx context.Context, handle string) (bool, error) {
	args := m.Called(ctx, handle)
	return args.Bool(0), args.Error(1)
}
