package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voicescribe/internal/app/analysis"
)

// MockAnalyzer is a testify mock of analysis.Analyzer. Stages passed to
// ReportStages are sent to onStage before Analyze returns.
type MockAnalyzer struct {
	mock.Mock
	ReportStages []analysis.Stage
}

// Analyze implements analysis.Analyzer
func (m *MockAnalyzer) Analyze(ctx context.Context, transcript string, onStage func(analysis.Stage)) (*analysis.Result, error) {
	for _, s := range m.ReportStages {
		if onStage != nil {
			onStage(s)
		}
	}
	args := m.Called(ctx, transcript)
	if r, ok := args.Get(0).(*analysis.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// Ask implements analysis.Analyzer
func (m *MockAnalyzer) Ask(ctx context.Context, transcript, question string) (string, error) {
	args := m.Called(ctx, transcript, question)
	return args.String(0), args.Error(1)
}

// Name implements analysis.Analyzer
func (m *MockAnalyzer) Name() string {
	return "mock"
}

var _ analysis.Analyzer = (*MockAnalyzer)(nil)
