package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/pkg/logger"
)

const (
	claudeDefaultModel     = "claude-sonnet-4-5"
	claudeDefaultMaxTokens = 4096
)

// ClaudeProvider implements Reasoner on the Anthropic Messages API
type ClaudeProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	log         *zap.Logger
}

// NewClaudeProvider creates new Claude provider. Extra request options are
// appended after the API key and timeout (base URL overrides in tests).
func NewClaudeProvider(cfg config.AIProviderConfig, timeout time.Duration, opts ...option.RequestOption) *ClaudeProvider {
	model := cfg.Model
	if model == "" {
		model = claudeDefaultModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &ClaudeProvider{
		client:      anthropic.NewClient(reqOpts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		log:         logger.Named("ai.claude"),
	}
}

// Name returns provider name
func (c *ClaudeProvider) Name() string {
	return "claude"
}

// Complete sends one message. With a schema, Claude is forced to call a single
// tool whose input schema is the requested document, and the tool input is
// returned as the JSON reply.
func (c *ClaudeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if schema != nil {
		doc := schema.JSONSchema()
		tool := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Properties: doc["properties"],
			Required:   schema.Required,
		}, schema.SchemaName())
		tool.OfTool.Description = anthropic.String("Return the response as this tool's input.")
		params.Tools = []anthropic.ToolUnionParam{tool}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(schema.SchemaName())
	}

	startTime := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			if schema != nil && block.Name == schema.SchemaName() && len(block.Input) > 0 {
				c.log.Debug("structured completion received",
					zap.String("model", c.model),
					zap.Duration("latency", time.Since(startTime)),
				)
				return string(block.Input), nil
			}
		case "text":
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from claude")
	}

	c.log.Debug("completion received",
		zap.String("model", c.model),
		zap.Duration("latency", time.Since(startTime)),
	)

	return text.String(), nil
}
