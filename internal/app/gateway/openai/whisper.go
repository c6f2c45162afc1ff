package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/transcript"
)

const providerName = "openai"

// Config represents configuration specific to the OpenAI Whisper gateway
type Config struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`
	Retention time.Duration `yaml:"retention"`
}

type task struct {
	mu     sync.Mutex
	update gateway.Update
	cancel context.CancelFunc
}

func (t *task) set(u gateway.Update) {
	t.mu.Lock()
	t.update = u
	t.mu.Unlock()
}

func (t *task) get() gateway.Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update
}

// Gateway adapts the synchronous Whisper API to the asynchronous gateway
// contract. Each submission runs in its own goroutine and is tracked in
// memory under a generated handle; handles do not survive a restart.
type Gateway struct {
	config     Config
	client     *openai.Client
	downloader *http.Client
	tasks      *expirable.LRU[string, *task]
	logger     *zap.Logger
}

// New creates a Whisper gateway
func New(config Config, logger *zap.Logger) *Gateway {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Model == "" {
		config.Model = string(openai.Whisper1)
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Minute
	}
	if config.Retention == 0 {
		config.Retention = time.Hour
	}

	return &Gateway{
		config:     config,
		client:     openai.NewClientWithConfig(clientConfig),
		downloader: &http.Client{Timeout: config.Timeout},
		tasks:      expirable.NewLRU[string, *task](10000, nil, config.Retention),
		logger:     logger.With(zap.String("provider", providerName)),
	}
}

// Name returns the provider name
func (g *Gateway) Name() string {
	return providerName
}

// Submit starts a background transcription of the audio at audioLocation
func (g *Gateway) Submit(ctx context.Context, audioLocation string, cfg gateway.Config) (string, error) {
	u, err := url.Parse(audioLocation)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		gateway.RequestsTotal.WithLabelValues(providerName, "submit", "error").Inc()
		return "", &gateway.Error{
			Code:     gateway.CodeInvalidRequest,
			Message:  fmt.Sprintf("audio location %q is not an http(s) URL", audioLocation),
			Provider: providerName,
		}
	}

	handle := "wsp_" + uuid.NewString()
	runCtx, cancel := context.WithTimeout(context.Background(), g.config.Timeout)
	t := &task{update: gateway.Update{State: gateway.StateQueued}, cancel: cancel}
	g.tasks.Add(handle, t)

	go g.run(runCtx, handle, t, u, cfg)

	gateway.RequestsTotal.WithLabelValues(providerName, "submit", "ok").Inc()
	g.logger.Info("transcription started", zap.String("handle", handle))
	return handle, nil
}

func (g *Gateway) run(ctx context.Context, handle string, t *task, location *url.URL, cfg gateway.Config) {
	defer t.cancel()
	start := time.Now()
	t.set(gateway.Update{State: gateway.StateProcessing, Progress: 10})

	update := g.transcribe(ctx, location, cfg)
	if ctx.Err() == context.Canceled {
		g.logger.Info("transcription cancelled", zap.String("handle", handle))
		update = gateway.Update{State: gateway.StateError, ErrorMessage: "cancelled"}
	}
	t.set(update)

	outcome := "ok"
	if update.State == gateway.StateError {
		outcome = "error"
		g.logger.Warn("transcription failed", zap.String("handle", handle), zap.String("error", update.ErrorMessage))
	}
	gateway.RequestsTotal.WithLabelValues(providerName, "transcribe", outcome).Inc()
	gateway.RequestDuration.WithLabelValues(providerName, "transcribe").Observe(time.Since(start).Seconds())
}

func (g *Gateway) transcribe(ctx context.Context, location *url.URL, cfg gateway.Config) gateway.Update {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location.String(), nil)
	if err != nil {
		return gateway.Update{State: gateway.StateError, ErrorMessage: err.Error()}
	}
	resp, err := g.downloader.Do(req)
	if err != nil {
		return gateway.Update{State: gateway.StateError, ErrorMessage: fmt.Sprintf("download audio: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gateway.Update{State: gateway.StateError, ErrorMessage: fmt.Sprintf("download audio: HTTP %d", resp.StatusCode)}
	}

	name := path.Base(location.Path)
	if name == "" || name == "/" || name == "." {
		name = "audio.mp3"
	}

	result, err := g.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    g.config.Model,
		FilePath: name,
		Reader:   resp.Body,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: cfg.Language,
	})
	if err != nil {
		return gateway.Update{State: gateway.StateError, ErrorMessage: describeAPIError(err)}
	}

	utterances := make([]transcript.Utterance, 0, len(result.Segments))
	for _, s := range result.Segments {
		utterances = append(utterances, transcript.Utterance{
			Speaker:    "A",
			Text:       s.Text,
			Start:      int64(s.Start * 1000),
			End:        int64(s.End * 1000),
			Confidence: logprobConfidence(s.AvgLogprob),
		})
	}
	payload := transcript.NewPayload(result.Text, utterances, result.Duration, 0)
	return gateway.Update{State: gateway.StateCompleted, Progress: 100, Payload: payload}
}

// Status reports the state of a background transcription
func (g *Gateway) Status(_ context.Context, handle string) (*gateway.Update, error) {
	t, ok := g.tasks.Get(handle)
	if !ok {
		return nil, &gateway.Error{
			Code:     gateway.CodeNotFound,
			Message:  fmt.Sprintf("unknown transcription %s", handle),
			Provider: providerName,
		}
	}
	u := t.get()
	return &u, nil
}

// Cancel aborts a running transcription
func (g *Gateway) Cancel(_ context.Context, handle string) error {
	t, ok := g.tasks.Get(handle)
	if !ok {
		return &gateway.Error{Code: gateway.CodeNotFound, Message: "unknown transcription " + handle, Provider: providerName}
	}
	t.cancel()
	return nil
}

// logprobConfidence maps Whisper's average log probability onto [0,1]
func logprobConfidence(avgLogprob float64) float64 {
	return math.Max(0, math.Min(1, math.Exp(avgLogprob)))
}

// describeAPIError converts OpenAI API errors to a message stored on the job
func describeAPIError(err error) string {
	if apiErr, ok := err.(*openai.APIError); ok {
		switch apiErr.HTTPStatusCode {
		case 401:
			return "OpenAI API key is invalid or missing"
		case 413:
			return "audio file exceeds the Whisper upload limit"
		case 429:
			return "OpenAI API rate limit exceeded"
		}
		return fmt.Sprintf("OpenAI API error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return err.Error()
}
