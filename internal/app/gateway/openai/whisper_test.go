package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicescribe/internal/app/gateway"
)

const verboseResponse = `{
	"task": "transcribe",
	"language": "english",
	"duration": 4.2,
	"text": "Ship it on Friday.",
	"segments": [
		{"id": 0, "start": 0.0, "end": 1.8, "text": " Ship it", "avg_logprob": -0.1},
		{"id": 1, "start": 1.8, "end": 4.0, "text": " on Friday.", "avg_logprob": -0.3}
	]
}`

func newTestGateway(t *testing.T, api http.HandlerFunc) (*Gateway, string) {
	t.Helper()
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ID3fake-audio"))
	}))
	t.Cleanup(files.Close)

	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	g := New(Config{APIKey: "sk-test", BaseURL: apiServer.URL + "/v1", Timeout: 5 * time.Second}, zap.NewNop())
	return g, files.URL
}

func waitTerminal(t *testing.T, g *Gateway, handle string) *gateway.Update {
	t.Helper()
	var last *gateway.Update
	require.Eventually(t, func() bool {
		u, err := g.Status(context.Background(), handle)
		if err != nil {
			return false
		}
		last = u
		return u.State.IsTerminal()
	}, 3*time.Second, 10*time.Millisecond)
	return last
}

func TestGateway_TranscribesInBackground(t *testing.T) {
	g, files := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(verboseResponse))
	})

	handle, err := g.Submit(context.Background(), files+"/audio/1/a.mp3", gateway.Config{})
	require.NoError(t, err)
	assert.Contains(t, handle, "wsp_")

	u := waitTerminal(t, g, handle)
	assert.Equal(t, gateway.StateCompleted, u.State)
	require.NotNil(t, u.Payload)
	assert.Equal(t, "Ship it on Friday.", u.Payload.Text)
	assert.Equal(t, 4.2, u.Payload.DurationSeconds)
	assert.Len(t, u.Payload.Segments, 2)
	assert.Equal(t, "Speaker A", u.Payload.Segments[1].Speaker)
	assert.InDelta(t, 0.82, u.Payload.Confidence, 0.01)
}

func TestGateway_DownloadFailureIsTerminalError(t *testing.T) {
	g, files := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API must not be called")
	})

	handle, err := g.Submit(context.Background(), files+"/missing.mp3", gateway.Config{})
	require.NoError(t, err)

	u := waitTerminal(t, g, handle)
	assert.Equal(t, gateway.StateError, u.State)
	assert.Contains(t, u.ErrorMessage, "HTTP 404")
}

func TestGateway_APIErrorIsRecorded(t *testing.T) {
	g, files := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	handle, err := g.Submit(context.Background(), files+"/a.mp3", gateway.Config{})
	require.NoError(t, err)

	u := waitTerminal(t, g, handle)
	assert.Equal(t, gateway.StateError, u.State)
	assert.Equal(t, "OpenAI API key is invalid or missing", u.ErrorMessage)
}

func TestGateway_RejectsNonHTTPLocation(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := g.Submit(context.Background(), "/tmp/audio.mp3", gateway.Config{})
	ge, ok := gateway.AsError(err)
	require.True(t, ok)
	assert.False(t, ge.Retryable)
}

func TestGateway_UnknownHandle(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := g.Status(context.Background(), "wsp_nope")
	ge, ok := gateway.AsError(err)
	require.True(t, ok)
	assert.Equal(t, gateway.CodeNotFound, ge.Code)
	assert.Error(t, g.Cancel(context.Background(), "wsp_nope"))
}

func TestGateway_Cancel(t *testing.T) {
	release := make(chan struct{})
	g, files := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	handle, err := g.Submit(context.Background(), files+"/a.mp3", gateway.Config{})
	require.NoError(t, err)
	require.NoError(t, g.Cancel(context.Background(), handle))

	u := waitTerminal(t, g, handle)
	assert.Equal(t, gateway.StateError, u.State)
	assert.Equal(t, "cancelled", u.ErrorMessage)
}
