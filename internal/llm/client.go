// Package llm wraps the external completion service behind a small client
// with bounded timeouts and capped exponential-backoff retries. Failures
// never escape the two call sites (debate room, portfolio manager); both
// degrade to locally-defined defaults.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/phuslu/log"

	"github.com/hweilin/quantmind/config"
)

// ChatModel is the slice of the eino model interface the pipeline needs.
// Both eino-ext providers satisfy it, and tests inject deterministic stubs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client issues completion requests with retry and timeout policy from the
// config. A zero MaxRetries still performs the initial attempt.
type Client struct {
	model ChatModel
	cfg   config.LLMConfig
}

// New builds a client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("completion service API key not configured")
	}

	var (
		cm  ChatModel
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "deepseek":
		cm, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})
	case "openai", "":
		maxTokens := cfg.MaxTokens
		cm, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: &maxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", cfg.Provider, err)
	}

	return &Client{model: cm, cfg: cfg}, nil
}

// NewWithModel wires an existing model, used by tests and embedders.
func NewWithModel(cm ChatModel, cfg config.LLMConfig) *Client {
	return &Client{model: cm, cfg: cfg}
}

// Complete sends the role-tagged messages and returns the raw text reply.
// Each attempt runs under the configured timeout; attempts back off
// exponentially from BaseDelay up to MaxDelay.
func (c *Client) Complete(ctx context.Context, msgs []*schema.Message) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			log.Warn().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).
				Msg("completion call failed, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := c.generate(ctx, msgs)
		if err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}

	return "", fmt.Errorf("completion service unavailable after %d attempts: %w",
		c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) generate(ctx context.Context, msgs []*schema.Message) (string, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", errors.New("completion service returned an empty reply")
	}
	return resp.Content, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.cfg.MaxDelay > 0 && delay >= c.cfg.MaxDelay {
			return c.cfg.MaxDelay
		}
	}
	if c.cfg.MaxDelay > 0 && delay > c.cfg.MaxDelay {
		delay = c.cfg.MaxDelay
	}
	return delay
}
