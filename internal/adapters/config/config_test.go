package config

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Defaults(t *testing.T) {
	t.Setenv("AI_CLAUDE_ENABLED", "true")
	t.Setenv("AI_CLAUDE_API_KEY", "sk-test")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Forecast.MinNews)
	assert.Equal(t, 100, cfg.Forecast.FetchLimit)
	assert.Equal(t, 40, cfg.Forecast.PromptNews)
	assert.Equal(t, 200, cfg.Forecast.SummaryLength)
	assert.Equal(t, 40, cfg.Forecast.MinConfidence)
	assert.Equal(t, 0.02, cfg.Backtest.SuccessThreshold)
	assert.Equal(t, int64(50), cfg.Options.LiquidityFloor)
	assert.Equal(t, 5, cfg.Options.Alternatives)
	assert.Equal(t, 0.05, cfg.Options.MidStrikeOffset)
	assert.Equal(t, 0.10, cfg.Options.LowStrikeOffset)
	assert.Equal(t, []string{"claude"}, cfg.AI.EnabledProviders())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var cfg Config
		require.NoError(t, envconfig.Process("", &cfg))
		cfg.AI.OpenAI = AIProviderConfig{Enabled: true, APIKey: "k"}
		return cfg
	}

	testCases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "valid", mutate: func(c *Config) {}, ok: true},
		{name: "no provider", mutate: func(c *Config) { c.AI.OpenAI.Enabled = false }},
		{name: "zero threshold", mutate: func(c *Config) { c.Backtest.SuccessThreshold = 0 }},
		{name: "negative floor", mutate: func(c *Config) { c.Options.LiquidityFloor = -1 }},
		{name: "empty db user", mutate: func(c *Config) { c.Database.User = "" }},
		{name: "telegram without token", mutate: func(c *Config) { c.Telegram.Enabled = true }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestEnabledProviders_Order(t *testing.T) {
	c := AIConfig{
		OpenAI: AIProviderConfig{Enabled: true, APIKey: "a"},
		Gemini: AIProviderConfig{Enabled: true, APIKey: "b"},
		Claude: AIProviderConfig{Enabled: true},
		Order:  []string{"gemini", "claude", "openai"},
	}
	assert.Equal(t, []string{"gemini", "openai"}, c.EnabledProviders())
}
