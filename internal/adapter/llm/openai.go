package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"policyrag/internal/domain"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.3
	DefaultTimeout     = 30 * time.Second
)

// Options configures a ChatGenerator.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// ChatGenerator sends the prompt as a single user message to an
// OpenAI-compatible chat completions endpoint.
type ChatGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewChatGenerator reads the API key from apiKeyEnv. A missing key is not an
// error here: self-hosted endpoints often accept anonymous requests, and a
// rejected call surfaces as a status error at generation time.
func NewChatGenerator(apiKeyEnv string, opts Options) *ChatGenerator {
	if opts.APIKey == "" && apiKeyEnv != "" {
		opts.APIKey = os.Getenv(apiKeyEnv)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &ChatGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
	}
}

// Complete returns the trimmed content of the first choice. Non-2xx
// responses are *domain.GenerationStatusError; everything else that goes
// wrong on the wire wraps domain.ErrGenerationTransport.
func (g *ChatGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// The request omits a zero temperature, which would leave the server
	// default in effect.
	temperature := g.temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", domain.ErrGenerationTransport)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *ChatGenerator) ModelName() string {
	return g.model
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &domain.GenerationStatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &domain.GenerationStatusError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationTransport, err)
}
