package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/model"
)

// scriptedServer answers GET /api/v1/transcriptions/1 with the scripted states
// in order, repeating the last one
func scriptedServer(t *testing.T, states ...dto.TranscriptionResponse) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transcriptions/1", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(states) {
			n = len(states) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(states[n])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func state(status model.JobStatus, progress int) dto.TranscriptionResponse {
	return dto.TranscriptionResponse{ID: 1, Status: status, Progress: progress}
}

func TestPoller_StopsOnTerminalStatus(t *testing.T) {
	srv, calls := scriptedServer(t,
		state(model.StatusPending, 0),
		state(model.StatusProcessing, 40),
		state(model.StatusCompleted, 100),
		state(model.StatusCompleted, 100),
	)
	poller := NewPoller(New(srv.URL, "token")).WithInterval(5 * time.Millisecond)

	var seen []model.JobStatus
	final, err := poller.Wait(context.Background(), 1, func(j *dto.TranscriptionResponse) {
		seen = append(seen, j.Status)
	})

	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, final.Status)
	assert.Equal(t, []model.JobStatus{model.StatusPending, model.StatusProcessing, model.StatusCompleted}, seen)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestPoller_RefetchesStaleCompletionOnce(t *testing.T) {
	srv, calls := scriptedServer(t,
		state(model.StatusProcessing, 80),
		state(model.StatusCompleted, 80),
		state(model.StatusCompleted, 100),
	)
	// a long interval proves the refetch does not wait for the next tick
	poller := NewPoller(New(srv.URL, "token")).WithInterval(20 * time.Millisecond)

	start := time.Now()
	final, err := poller.Wait(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, final.Progress)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPoller_StaleRefetchIsFinal(t *testing.T) {
	srv, calls := scriptedServer(t,
		state(model.StatusCompleted, 90),
		state(model.StatusCompleted, 95),
	)
	poller := NewPoller(New(srv.URL, "token")).WithInterval(5 * time.Millisecond)

	final, err := poller.Wait(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 95, final.Progress)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestPoller_ErrorAndCancelledAreTerminal(t *testing.T) {
	for _, status := range []model.JobStatus{model.StatusError, model.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			srv, calls := scriptedServer(t, state(status, 0))
			final, err := NewPoller(New(srv.URL, "token")).Wait(context.Background(), 1, nil)
			require.NoError(t, err)
			assert.Equal(t, status, final.Status)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestPoller_ToleratesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(state(model.StatusCompleted, 100))
	}))
	defer srv.Close()

	final, err := NewPoller(New(srv.URL, "")).WithInterval(5*time.Millisecond).Wait(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, final.Status)
}

func TestPoller_ClientErrorStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"kind":"forbidden","message":"you do not have access to this transcription"}`))
	}))
	defer srv.Close()

	_, err := NewPoller(New(srv.URL, "")).WithInterval(5*time.Millisecond).Wait(context.Background(), 1, nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	require.NotNil(t, statusErr.API)
	assert.Equal(t, "you do not have access to this transcription", statusErr.API.Message)
}

func TestPoller_ContextCancel(t *testing.T) {
	srv, _ := scriptedServer(t, state(model.StatusProcessing, 10))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewPoller(New(srv.URL, "token")).WithInterval(5*time.Millisecond).Wait(ctx, 1, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/transcriptions", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "memo.wav", header.Filename)
		assert.Equal(t, "true", r.FormValue("auto_start"))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(dto.UploadResponse{
			TranscriptionResponse: dto.TranscriptionResponse{ID: 9, Status: model.StatusProcessing, FileSize: header.Size},
			Started:               true,
		})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "memo.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o644))

	resp, err := New(srv.URL, "token").Upload(context.Background(), path, true)
	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.ID)
	assert.True(t, resp.Started)
	assert.Equal(t, int64(12), resp.FileSize)
}
