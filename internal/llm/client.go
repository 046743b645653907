// Package llm provides the single text-generation capability used by the
// classifier adapter, the judge, and LLM-backed workers. Provider identity
// is hidden behind the Generator interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ecohq/eco/internal/config"
	log "github.com/ecohq/eco/internal/logging"
)

// Generator is the capability interface for text generation.
type Generator interface {
	// Generate sends a prompt to the model and returns the completion.
	Generate(ctx context.Context, prompt string) (string, error)
}

// UsageRecorder receives token usage after each completed call.
type UsageRecorder interface {
	RecordUsage(model string, inputTokens, outputTokens int)
}

// Client implements Generator using langchain-go.
type Client struct {
	llm         llms.Model
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	recorder    UsageRecorder
}

// NewClient creates a generator for the configured provider.
func NewClient(cfg *config.Config) (*Client, error) {
	var llmModel llms.Model
	var err error

	switch cfg.LLMProvider {
	case "openai":
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
	case "azure":
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithBaseURL(cfg.LLMServiceURL),
		)
	case "anthropic":
		llmModel, err = anthropic.New(
			anthropic.WithToken(cfg.LLMAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
	case "googleai":
		llmModel, err = googleai.New(
			context.Background(),
			googleai.WithAPIKey(cfg.LLMAPIKey),
			googleai.WithDefaultModel(cfg.LLMModel),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Client{
		llm:         llmModel,
		model:       cfg.LLMModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
		timeout:     cfg.LLMTimeout,
	}, nil
}

// WithRecorder attaches a usage recorder and returns the client.
func (c *Client) WithRecorder(rec UsageRecorder) *Client {
	c.recorder = rec
	return c
}

// Generate sends a prompt to the model and returns the completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.llm == nil {
		return "", errors.New("LLM client not initialized")
	}

	log.Debugf("Sending prompt to LLM: %s", truncateForLogging(prompt))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("LLM generation failed: %w", err)
	}

	log.Debugf("Received response from LLM: %s", truncateForLogging(completion))

	if c.recorder != nil {
		c.recorder.RecordUsage(c.model, estimateTokens(prompt), estimateTokens(completion))
	}
	return completion, nil
}

// estimateTokens approximates token counts from byte length. langchain-go's
// single-prompt helper does not expose provider usage numbers, so the cost
// log records an estimate at roughly four bytes per token.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// truncateForLogging truncates a string to a reasonable length for logging
func truncateForLogging(s string) string {
	const maxLength = 500
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "... [truncated]"
}
