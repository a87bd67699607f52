// Package openai implements the completion client against an
// OpenAI-compatible chat-completions API.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
)

// ClientConfig is the configuration for the OpenAI completion client.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Logger      log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "completion.OpenAI"})
	return nil
}

// Client is a completion.Client backed by an OpenAI-compatible API.
type Client struct {
	http        *resty.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	logger      log.Logger
}

// NewClient creates a new OpenAI completion client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	http := resty.New().
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on 429 (Too Many Requests) and 5xx server errors.
			return r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})

	return &Client{
		http:        http,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the completion text. Any
// transport or API failure is wrapped in model.ErrExternalService so
// callers can take their fallback paths.
func (c *Client) Complete(ctx context.Context, systemPrompt string, msgs []completion.Message) (string, error) {
	messages := make([]chatMessage, 0, len(msgs)+1)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(completion.RoleSystem), Content: systemPrompt})
	}
	for _, m := range msgs {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var result chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		}).
		SetResult(&result).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request failed: %v: %w", err, model.ErrExternalService)
	}

	if resp.IsError() {
		return "", fmt.Errorf("completion API returned HTTP %d: %w", resp.StatusCode(), model.ErrExternalService)
	}
	if result.Error != nil {
		return "", fmt.Errorf("completion API error: %s: %w", result.Error.Message, model.ErrExternalService)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices: %w", model.ErrExternalService)
	}

	content := result.Choices[0].Message.Content
	c.logger.Debugf("Completion returned %d characters", len(content))

	return content, nil
}
