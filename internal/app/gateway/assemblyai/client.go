package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"voicescribe/internal/app/gateway"
	"voicescribe/internal/app/transcript"
)

const providerName = "assemblyai"

// Config represents configuration for the AssemblyAI gateway
type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	SpeechModel string        `yaml:"speech_model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  uint64        `yaml:"max_retries"`
	// RequestsPerSecond caps outgoing calls; zero means 5
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Client talks to the AssemblyAI v2 REST API
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	backoff func() backoff.BackOff
}

// New creates an AssemblyAI gateway
func New(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.assemblyai.com"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.SpeechModel == "" {
		config.SpeechModel = "best"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:  logger.With(zap.String("provider", providerName)),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

type submitRequest struct {
	AudioURL              string `json:"audio_url"`
	SpeakerLabels         bool   `json:"speaker_labels"`
	SpeechModel           string `json:"speech_model,omitempty"`
	LanguageCode          string `json:"language_code,omitempty"`
	LanguageDetection     bool   `json:"language_detection,omitempty"`
	Punctuate             bool   `json:"punctuate"`
	FormatText            bool   `json:"format_text"`
	WebhookURL            string `json:"webhook_url,omitempty"`
	WebhookAuthHeaderName string `json:"webhook_auth_header_name,omitempty"`
	WebhookAuthHeaderVal  string `json:"webhook_auth_header_value,omitempty"`
}

type utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

type transcriptResponse struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	Text          string      `json:"text"`
	Utterances    []utterance `json:"utterances"`
	AudioDuration float64     `json:"audio_duration"`
	Confidence    float64     `json:"confidence"`
	Error         string      `json:"error"`
}

// WebhookHeader is the header AssemblyAI echoes back on webhook deliveries
const WebhookHeader = "X-Voicescribe-Webhook-Secret"

// Submit queues audio for transcription and returns the transcript id
func (c *Client) Submit(ctx context.Context, audioLocation string, cfg gateway.Config) (string, error) {
	req := submitRequest{
		AudioURL:      audioLocation,
		SpeakerLabels: cfg.SpeakerLabels,
		SpeechModel:   c.config.SpeechModel,
		Punctuate:     true,
		FormatText:    true,
		WebhookURL:    cfg.WebhookURL,
	}
	if cfg.Language != "" {
		req.LanguageCode = cfg.Language
	} else {
		req.LanguageDetection = true
	}
	if cfg.WebhookURL != "" && cfg.WebhookSecret != "" {
		req.WebhookAuthHeaderName = WebhookHeader
		req.WebhookAuthHeaderVal = cfg.WebhookSecret
	}

	var resp transcriptResponse
	if err := c.do(ctx, "submit", http.MethodPost, "/v2/transcript", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &gateway.Error{Code: gateway.CodeBadResponse, Message: "response has no transcript id", Provider: providerName}
	}

	c.logger.Info("transcript submitted", zap.String("handle", resp.ID), zap.String("status", resp.Status))
	return resp.ID, nil
}

// Status fetches the transcript and converts it into an Update
func (c *Client) Status(ctx context.Context, handle string) (*gateway.Update, error) {
	var resp transcriptResponse
	if err := c.do(ctx, "status", http.MethodGet, "/v2/transcript/"+handle, nil, &resp); err != nil {
		return nil, err
	}
	return c.toUpdate(&resp), nil
}

// Cancel asks AssemblyAI to drop the transcript
func (c *Client) Cancel(ctx context.Context, handle string) error {
	return c.do(ctx, "cancel", http.MethodDelete, "/v2/transcript/"+handle, nil, nil)
}

func (c *Client) toUpdate(resp *transcriptResponse) *gateway.Update {
	switch resp.Status {
	case "completed":
		utterances := make([]transcript.Utterance, 0, len(resp.Utterances))
		for _, u := range resp.Utterances {
			utterances = append(utterances, transcript.Utterance{
				Speaker:    u.Speaker,
				Text:       u.Text,
				Start:      u.Start,
				End:        u.End,
				Confidence: u.Confidence,
			})
		}
		payload := transcript.NewPayload(resp.Text, utterances, resp.AudioDuration, resp.Confidence)
		return &gateway.Update{State: gateway.StateCompleted, Progress: 100, Payload: payload}
	case "error":
		msg := resp.Error
		if msg == "" {
			msg = "transcription failed"
		}
		return &gateway.Update{State: gateway.StateError, ErrorMessage: msg}
	case "processing":
		return &gateway.Update{State: gateway.StateProcessing}
	default:
		return &gateway.Update{State: gateway.StateQueued}
	}
}

// do performs one API call, retrying transient failures with exponential backoff
func (c *Client) do(ctx context.Context, operation, method, path string, body, out interface{}) error {
	start := time.Now()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &gateway.Error{Code: gateway.CodeInvalidRequest, Message: err.Error(), Provider: providerName}
		}
	}

	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&gateway.Error{Code: gateway.CodeNetwork, Message: err.Error(), Provider: providerName, Retryable: true})
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
		if err != nil {
			return backoff.Permanent(&gateway.Error{Code: gateway.CodeInvalidRequest, Message: err.Error(), Provider: providerName})
		}
		req.Header.Set("Authorization", c.config.APIKey)
		req.Header.Set("User-Agent", "voicescribe/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			gerr := &gateway.Error{
				Code:      gateway.CodeNetwork,
				Message:   fmt.Sprintf("failed to call AssemblyAI API: %v", err),
				Provider:  providerName,
				Retryable: true,
			}
			// a POST that may have reached the server is not sent again
			if method == http.MethodPost && !dialFailed(err) {
				return backoff.Permanent(gerr)
			}
			return gerr
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			gerr := gateway.ErrorForStatus(providerName, resp.StatusCode, strings.TrimSpace(string(data)))
			if !gerr.Retryable {
				return backoff.Permanent(gerr)
			}
			return gerr
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(&gateway.Error{
				Code:     gateway.CodeBadResponse,
				Message:  fmt.Sprintf("failed to parse API response: %v", err),
				Provider: providerName,
			})
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying AssemblyAI call",
			zap.String("operation", operation),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.config.MaxRetries), ctx)
	err := backoff.RetryNotify(attempt, policy, notify)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if err != nil {
		if _, ok := gateway.AsError(err); !ok {
			err = &gateway.Error{Code: gateway.CodeNetwork, Message: err.Error(), Provider: providerName, Retryable: true}
		}
	}

	gateway.RequestsTotal.WithLabelValues(providerName, operation, gateway.Outcome(err)).Inc()
	gateway.RequestDuration.WithLabelValues(providerName, operation).Observe(time.Since(start).Seconds())
	return err
}

// dialFailed reports whether err happened while connecting, before any of
// the request was written
func dialFailed(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
