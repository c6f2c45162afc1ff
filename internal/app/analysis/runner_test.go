package analysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicescribe/internal/app/analysis"
	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/testutil"
)

func completedJob(t *testing.T, tdb *testutil.TestDB) *model.Job {
	t.Helper()
	ctx := context.Background()
	owner := tdb.CreateTestUser(t, "analyst")
	job := tdb.CreateTestJob(t, owner, model.MB)
	_, err := tdb.Jobs.MarkProcessing(ctx, job.ID, "h1", "fake")
	require.NoError(t, err)
	_, err = tdb.Jobs.MarkCompleted(ctx, job.ID, testutil.SamplePayload(30))
	require.NoError(t, err)
	return job
}

func TestRunner_Run(t *testing.T) {
	tdb := testutil.SetupTestSQLite(t)
	ctx := context.Background()
	job := completedJob(t, tdb)

	analyzer := &testutil.MockAnalyzer{ReportStages: []analysis.Stage{{Name: analysis.StageAnalyzing, Percent: 30}}}
	analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(text string) bool {
		return text != "" && text[0] == '['
	})).Return(&analysis.Result{
		Summary:         "Weekly sync kickoff.",
		KeyPoints:       []string{"roadmap first"},
		ActionItems:     []string{},
		SpeakerInsights: []model.SpeakerInsight{{Speaker: "Speaker A", Insight: "hosts"}},
	}, nil)

	bus := events.NewMemoryBus()
	ch, unsub, err := bus.Subscribe(ctx, job.ID)
	require.NoError(t, err)
	defer unsub()

	runner := analysis.NewRunner(tdb.Jobs, analyzer, bus, zap.NewNop())
	var stages []analysis.Stage
	result, err := runner.Run(ctx, job.ID, func(s analysis.Stage) { stages = append(stages, s) })
	require.NoError(t, err)
	assert.Equal(t, "Weekly sync kickoff.", result.Summary)
	require.NotEmpty(t, stages)
	assert.Equal(t, analysis.StageDone, stages[len(stages)-1].Name)
	assert.Equal(t, 100, stages[len(stages)-1].Percent)

	saved, err := tdb.Jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.Analysis)
	assert.Equal(t, []string{"roadmap first"}, saved.Analysis.KeyPoints)
	assert.Equal(t, model.StatusCompleted, saved.Status)

	e := <-ch
	assert.Equal(t, events.TypeAnalysed, e.Type)
	analyzer.AssertExpectations(t)
}

func TestRunner_RequiresCompletedJob(t *testing.T) {
	tdb := testutil.SetupTestSQLite(t)
	owner := tdb.CreateTestUser(t, "impatient")
	job := tdb.CreateTestJob(t, owner, model.MB)

	analyzer := &testutil.MockAnalyzer{}
	runner := analysis.NewRunner(tdb.Jobs, analyzer, nil, zap.NewNop())

	_, err := runner.Run(context.Background(), job.ID, nil)
	var ise *apperrors.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, string(model.StatusPending), ise.Status)

	_, err = runner.Ask(context.Background(), job.ID, "who spoke?")
	require.ErrorAs(t, err, &ise)
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestRunner_AnalyzerFailureSavesNothing(t *testing.T) {
	tdb := testutil.SetupTestSQLite(t)
	ctx := context.Background()
	job := completedJob(t, tdb)

	analyzer := &testutil.MockAnalyzer{}
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("quota exhausted"))
	runner := analysis.NewRunner(tdb.Jobs, analyzer, nil, zap.NewNop())

	_, err := runner.Run(ctx, job.ID, nil)
	require.Error(t, err)

	saved, err := tdb.Jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, saved.Analysis)
}

func TestRunner_Ask(t *testing.T) {
	tdb := testutil.SetupTestSQLite(t)
	job := completedJob(t, tdb)

	analyzer := &testutil.MockAnalyzer{}
	analyzer.On("Ask", mock.Anything, mock.Anything, "Who opened the call?").Return("Speaker A opened it.", nil)
	runner := analysis.NewRunner(tdb.Jobs, analyzer, nil, zap.NewNop())

	answer, err := runner.Ask(context.Background(), job.ID, "Who opened the call?")
	require.NoError(t, err)
	assert.Equal(t, "Speaker A opened it.", answer)

	_, err = runner.Ask(context.Background(), job.ID, "  ")
	assert.Error(t, err)
}
