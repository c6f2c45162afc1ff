package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIConfig configures the OpenAI chat analyzer
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIAnalyzer analyses transcripts with the OpenAI chat completions API
type OpenAIAnalyzer struct {
	client *openai.Client
	config OpenAIConfig
	logger *zap.Logger
}

// NewOpenAIAnalyzer creates an OpenAI analyzer
func NewOpenAIAnalyzer(config OpenAIConfig, logger *zap.Logger) *OpenAIAnalyzer {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger.With(zap.String("analyzer", "openai")),
	}
}

// Name returns the analyzer name
func (a *OpenAIAnalyzer) Name() string {
	return "openai"
}

// Analyze asks the model for a JSON analysis of transcript
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, transcript string, onStage func(Stage)) (*Result, error) {
	report(onStage, StagePreparing, 10, "preparing transcript")

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	report(onStage, StageAnalyzing, 30, "waiting for "+a.config.Model)
	start := time.Now()
	content, err := a.complete(ctx, analysisSystemPrompt, analysisUserPrompt(transcript), true)
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
func (a *OpenAIAnalyzer) Ask(ctx context.Context, transcript, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.complete(ctx, askSystemPrompt, askUserPrompt(transcript, question), false)
}

func (a *OpenAIAnalyzer) complete(ctx context.Context, system, user string, jsonOutput bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.config.Model,
		Temperature: a.config.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %s", describeAPIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func describeAPIError(err error) string {
	if apiErr, ok := err.(*openai.APIError); ok {
		switch apiErr.HTTPStatusCode {
		case 401:
			return "OpenAI API key is invalid or missing"
		case 429:
			return "OpenAI API rate limit exceeded"
		}
		return fmt.Sprintf("OpenAI API error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return err.Error()
}
