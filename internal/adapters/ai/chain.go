package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
)

// Chain tries providers in order and returns the first successful completion
type Chain struct {
	providers []Reasoner
	timeout   time.Duration
	log       *zap.Logger
}

// NewChain creates a failover chain. A zero timeout leaves deadlines to the caller.
func NewChain(timeout time.Duration, providers ...Reasoner) *Chain {
	return &Chain{
		providers: providers,
		timeout:   timeout,
		log:       logger.Named("ai.chain"),
	}
}

// NewFromConfig builds a chain from every enabled provider in configured order
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (*Chain, error) {
	var providers []Reasoner

	for _, name := range cfg.EnabledProviders() {
		switch name {
		case "openai":
			providers = append(providers, NewOpenAIProvider(cfg.OpenAI, cfg.Timeout))
		case "claude":
			providers = append(providers, NewClaudeProvider(cfg.Claude, cfg.Timeout))
		case "gemini":
			g, err := NewGeminiProvider(ctx, cfg.Gemini)
			if err != nil {
				return nil, err
			}
			providers = append(providers, g)
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no AI providers enabled")
	}

	logger.Info("reasoning providers configured", zap.Strings("providers", cfg.EnabledProviders()))

	return NewChain(cfg.Timeout, providers...), nil
}

// Name returns provider name
func (c *Chain) Name() string {
	return "chain"
}

// Providers returns the number of providers in the chain
func (c *Chain) Providers() int {
	return len(c.providers)
}

// Complete asks each provider in turn. The returned error wraps
// models.ErrUpstreamFailure when every provider failed.
func (c *Chain) Complete(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) (string, error) {
	var errs []error

	for _, p := range c.providers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		text, err := c.completeOne(ctx, p, systemPrompt, userPrompt, schema)
		if err == nil {
			return text, nil
		}

		c.log.Warn("provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no providers configured"))
	}

	return "", models.NewPipelineError(models.ErrUpstreamFailure, "ai.complete", errors.Join(errs...))
}

func (c *Chain) completeOne(ctx context.Context, p Reasoner, systemPrompt, userPrompt string, schema *Schema) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Complete(ctx, systemPrompt, userPrompt, schema)
}
