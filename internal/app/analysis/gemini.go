package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini analyzer
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// GeminiAnalyzer analyses transcripts with the Gemini API
type GeminiAnalyzer struct {
	client *genai.Client
	config GeminiConfig
	logger *zap.Logger
}

// NewGeminiAnalyzer creates a Gemini analyzer
func NewGeminiAnalyzer(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiAnalyzer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiAnalyzer{
		client: client,
		config: config,
		logger: logger.With(zap.String("analyzer", "gemini")),
	}, nil
}

// Name returns the analyzer name
func (a *GeminiAnalyzer) Name() string {
	return "gemini"
}

// Analyze asks Gemini for a JSON analysis of transcript
func (a *GeminiAnalyzer) Analyze(ctx context.Context, transcript string, onStage func(Stage)) (*Result, error) {
	report(onStage, StagePreparing, 10, "preparing transcript")

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	report(onStage, StageAnalyzing, 30, "waiting for "+a.config.Model)
	start := time.Now()
	content, err := a.generate(ctx, analysisSystemPrompt, analysisUserPrompt(transcript), "application/json")
	if err != nil {
		return nil, err
	}

	report(onStage, StageParsing, 80, "reading the analysis")
	result, ok := Decode(content)
	if !ok {
		a.logger.Warn("analysis reply did not match the expected shape, keeping it as summary",
			zap.Int("reply_len", len(content)))
	}
	a.logger.Info("analysis finished",
		zap.String("model", a.config.Model),
		zap.Bool("structured", ok),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Ask answers a free-form question about transcript
func (a *GeminiAnalyzer) Ask(ctx context.Context, transcript, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.generate(ctx, askSystemPrompt, askUserPrompt(transcript, question), "")
}

func (a *GeminiAnalyzer) generate(ctx context.Context, system, user, mimeType string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(a.config.Temperature),
		ResponseMIMEType:  mimeType,
	}
	resp, err := a.client.Models.GenerateContent(ctx, a.config.Model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini generate content: empty response")
	}
	return text, nil
}
