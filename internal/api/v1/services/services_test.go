package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apierrors "voicescribe/internal/api/errors"
	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/api/v1/services"
	apperrors "voicescribe/internal/app/errors"
	"voicescribe/internal/app/events"
	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/lifecycle"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
	"voicescribe/internal/app/storage"
	"voicescribe/internal/app/testutil"
)

// recordingStore remembers every key it handed out
type recordingStore struct {
	*storage.MemoryStore
	keys []string
}

func (s *recordingStore) Put(ctx context.Context, userID int64, filename, contentType string, r io.Reader, size int64) (*storage.Object, error) {
	obj, err := s.MemoryStore.Put(ctx, userID, filename, contentType, r, size)
	if err == nil {
		s.keys = append(s.keys, obj.Key)
	}
	return obj, err
}

type serviceFixture struct {
	tdb     *testutil.TestDB
	ctrl    *lifecycle.Controller
	gw      *testutil.FakeGateway
	store   *recordingStore
	bus     *events.MemoryBus
	service *services.TranscriptionServiceImpl
	owner   int64
	other   int64
}

func newServiceFixture(t *testing.T, limits model.Limits) *serviceFixture {
	t.Helper()
	tdb := testutil.SetupTestSQLite(t)
	ledger := quota.NewLedger(tdb.Quota, tdb.Jobs, quota.StaticLimits(limits), zap.NewNop())
	gw := testutil.NewFakeGateway("fake")
	store := &recordingStore{MemoryStore: storage.NewMemoryStore("http://files.test")}
	bus := events.NewMemoryBus()

	ctrl := lifecycle.NewController(tdb.Jobs, ledger, gw, store, bus, zap.NewNop(), lifecycle.DefaultConfig())
	t.Cleanup(ctrl.Wait)

	return &serviceFixture{
		tdb:     tdb,
		ctrl:    ctrl,
		gw:      gw,
		store:   store,
		bus:     bus,
		service: services.NewTranscriptionService(ctrl, store, bus, zap.NewNop()),
		owner:   tdb.CreateTestUser(t, "owner"),
		other:   tdb.CreateTestUser(t, "other"),
	}
}

func (f *serviceFixture) upload(t *testing.T, size int, autoStart bool) (*dto.UploadResponse, error) {
	t.Helper()
	return f.service.Upload(context.Background(), services.UploadInput{
		OwnerID:     f.owner,
		Filename:    "Team Sync.MP3",
		ContentType: "audio/mpeg",
		Size:        int64(size),
		Body:        bytes.NewReader(make([]byte, size)),
		DisplayName: "Team sync",
		AutoStart:   autoStart,
	})
}

func TestTranscriptionService_Upload(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())

	resp, err := f.upload(t, 4096, false)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, resp.Status)
	assert.False(t, resp.Started)
	assert.Equal(t, "Team Sync.MP3", resp.OriginalName)
	require.NotNil(t, resp.DisplayName)
	assert.Equal(t, "Team sync", *resp.DisplayName)
	assert.Equal(t, int64(4096), resp.FileSize)
	assert.Regexp(t, `^\d+-[0-9a-f]{8}\.mp3$`, resp.Filename)

	require.Len(t, f.store.keys, 1)
	_, ok := f.store.Get(f.store.keys[0])
	assert.True(t, ok)
	assert.Empty(t, f.gw.Submissions())
}

func TestTranscriptionService_UploadAutoStart(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())

	resp, err := f.upload(t, 1024, true)
	require.NoError(t, err)
	assert.True(t, resp.Started)
	assert.Equal(t, model.StatusProcessing, resp.Status)

	subs := f.gw.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "http://files.test/"+f.store.keys[0], subs[0].AudioLocation)
}

func TestTranscriptionService_UploadAutoStartProviderDown(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())
	f.gw.WithSubmitError(&gateway.Error{Code: gateway.CodeNetwork, Message: "connection refused", Provider: "fake", Retryable: true})

	resp, err := f.upload(t, 1024, true)
	require.NoError(t, err)
	assert.False(t, resp.Started)
	assert.Equal(t, model.StatusPending, resp.Status)
}

func TestTranscriptionService_UploadRejectedRemovesObject(t *testing.T) {
	limits := model.DefaultLimits()
	limits.MaxFileSizeMB = 1
	f := newServiceFixture(t, limits)

	_, err := f.upload(t, int(2*model.MB), false)
	qe, ok := apperrors.IsQuotaExceeded(err)
	require.True(t, ok, "expected quota error, got %v", err)
	assert.Equal(t, string(model.LimitMaxFileSize), qe.LimitKey)

	require.Len(t, f.store.keys, 1)
	_, stored := f.store.Get(f.store.keys[0])
	assert.False(t, stored)

	jobs, total, err := f.ctrl.ListJobs(context.Background(), lifecycle.Requester{UserID: f.owner}, model.JobFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, jobs)
}

func TestTranscriptionService_UploadEmpty(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())

	_, err := f.upload(t, 0, false)
	require.Error(t, err)
	assert.Empty(t, f.store.keys)
}

func TestTranscriptionService_AccessAndTransitions(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())
	ctx := context.Background()
	owner := lifecycle.Requester{UserID: f.owner}
	stranger := lifecycle.Requester{UserID: f.other}

	uploaded, err := f.upload(t, 1024, false)
	require.NoError(t, err)
	id := uploaded.ID

	_, err = f.service.GetTranscription(ctx, stranger, id)
	var forbidden *apperrors.ForbiddenError
	assert.True(t, errors.As(err, &forbidden))

	_, err = f.service.Start(ctx, stranger, id)
	assert.True(t, errors.As(err, &forbidden))
	assert.Empty(t, f.gw.Submissions(), "a stranger must not be able to submit")

	started, err := f.service.Start(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, started.Status)

	_, err = f.service.Start(ctx, owner, id)
	var stateErr *apperrors.InvalidStateError
	assert.True(t, errors.As(err, &stateErr))

	cancelled, err := f.service.Cancel(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	retried, err := f.service.Retry(ctx, owner, id)
	require.NoError(t, err)
	assert.NotEqual(t, id, retried.ID)
	assert.Equal(t, model.StatusPending, retried.Status)

	page, err := f.service.ListTranscriptions(ctx, owner, dto.ListTranscriptionsQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
	assert.Len(t, page.Transcriptions, 1)
}

func TestTranscriptionService_Subscribe(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uploaded, err := f.upload(t, 1024, false)
	require.NoError(t, err)

	current, ch, unsubscribe, err := f.service.Subscribe(ctx, lifecycle.Requester{UserID: f.owner}, uploaded.ID)
	require.NoError(t, err)
	defer unsubscribe()
	assert.Equal(t, model.StatusPending, current.Status)

	require.NoError(t, f.ctrl.StartJob(ctx, uploaded.ID))
	select {
	case e := <-ch:
		assert.Equal(t, events.TypeStarted, e.Type)
		assert.Equal(t, model.StatusProcessing, e.Status)
	case <-ctx.Done():
		t.Fatal("no event received")
	}

	_, _, _, err = f.service.Subscribe(ctx, lifecycle.Requester{UserID: f.other}, uploaded.ID)
	assert.Error(t, err)
}

func TestTranscriptionService_SubscribeWithoutBus(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())
	service := services.NewTranscriptionService(f.ctrl, f.store, nil, zap.NewNop())

	_, _, _, err := service.Subscribe(context.Background(), lifecycle.Requester{UserID: f.owner}, 1)
	apiErr := apierrors.FromError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierrors.KindServiceUnavailable, apiErr.Kind)
}

func TestWebhookService_HandleTranscriptUpdate(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())
	ctx := context.Background()
	webhooks := services.NewWebhookService(f.tdb.Jobs, f.gw, f.ctrl, zap.NewNop())

	uploaded, err := f.upload(t, 1024, true)
	require.NoError(t, err)
	require.True(t, uploaded.Started)
	handle := f.gw.Submissions()[0].Handle

	handled, err := webhooks.HandleTranscriptUpdate(ctx, "fake_unknown")
	require.NoError(t, err)
	assert.False(t, handled)

	f.gw.SetStatus(handle, &gateway.Update{State: gateway.StateProcessing, Progress: 60})
	handled, err = webhooks.HandleTranscriptUpdate(ctx, handle)
	require.NoError(t, err)
	assert.True(t, handled)
	job, err := f.ctrl.GetJob(ctx, uploaded.ID, lifecycle.Requester{UserID: f.owner})
	require.NoError(t, err)
	assert.Equal(t, 60, job.Progress)

	f.gw.SetStatus(handle, &gateway.Update{State: gateway.StateCompleted, Progress: 100, Payload: testutil.SamplePayload(125)})
	handled, err = webhooks.HandleTranscriptUpdate(ctx, handle)
	require.NoError(t, err)
	assert.True(t, handled)
	job, err = f.ctrl.GetJob(ctx, uploaded.ID, lifecycle.Requester{UserID: f.owner})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, job.Status)
	require.NotNil(t, job.TranscriptText)

	f.gw.SetStatusError(handle, &gateway.Error{Code: gateway.CodeNetwork, Message: "timeout", Provider: "fake", Retryable: true})
	handled, err = webhooks.HandleTranscriptUpdate(ctx, handle)
	assert.True(t, handled)
	assert.Error(t, err)
}

func TestWebhookService_IgnoresOtherProvider(t *testing.T) {
	f := newServiceFixture(t, model.DefaultLimits())
	ctx := context.Background()

	uploaded, err := f.upload(t, 1024, true)
	require.NoError(t, err)
	handle := f.gw.Submissions()[0].Handle

	other := testutil.NewFakeGateway("assemblyai")
	webhooks := services.NewWebhookService(f.tdb.Jobs, other, f.ctrl, zap.NewNop())

	handled, err := webhooks.HandleTranscriptUpdate(ctx, handle)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, other.StatusCalls(handle))

	job, err := f.ctrl.GetJob(ctx, uploaded.ID, lifecycle.Requester{UserID: f.owner})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, job.Status)
}

func TestUsageService_Limits(t *testing.T) {
	tdb := testutil.SetupTestSQLite(t)
	limitsStore := quota.NewLimitsStore(tdb.Settings, model.DefaultLimits(), time.Millisecond, zap.NewNop())
	ledger := quota.NewLedger(tdb.Quota, tdb.Jobs, limitsStore, zap.NewNop(), quota.WithOverridesTTL(time.Millisecond))
	usage := services.NewUsageService(ledger, limitsStore)
	ctx := context.Background()
	userID := tdb.CreateTestUser(t, "limited")

	zero := int64(0)
	resp, err := usage.SetUserLimits(ctx, userID, model.LimitOverrides{DailyTranscriptionCount: &zero})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Effective.DailyTranscriptionCount)
	assert.Equal(t, model.DefaultLimits().WeeklyTranscriptionCount, resp.Effective.WeeklyTranscriptionCount)

	negative := int64(-5)
	_, err = usage.SetUserLimits(ctx, userID, model.LimitOverrides{TotalStorageMB: &negative})
	apiErr := apierrors.FromError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierrors.KindValidation, apiErr.Kind)
	assert.Contains(t, apiErr.Details, "totalStorageMB")

	defaults := model.DefaultLimits()
	defaults.WeeklyAudioMinutes = 42
	updated, err := usage.SetDefaultLimits(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, int64(42), updated.WeeklyAudioMinutes)

	time.Sleep(5 * time.Millisecond)
	resp, err = usage.GetUserLimits(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.Effective.WeeklyAudioMinutes)
	assert.Equal(t, int64(0), resp.Effective.DailyTranscriptionCount)

	assert.Error(t, usage.ResetUsage(ctx, userID, model.PeriodType("yearly")))
	assert.NoError(t, usage.ResetUsage(ctx, userID, model.PeriodDaily))

	snapshot, err := usage.Usage(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, snapshot.UserID)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthService_Check(t *testing.T) {
	tdb := testutil.SetupTestSQLite(t)
	health := services.NewHealthService(map[string]services.Pinger{
		"database": tdb.Common,
		"storage":  pingerFunc(func(context.Context) error { return errors.New("bucket missing") }),
	})

	result := health.Check(context.Background())
	assert.Equal(t, "ok", result["database"])
	assert.Equal(t, "bucket missing", result["storage"])
}
