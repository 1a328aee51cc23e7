package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/PabloGalante/chatpro/internal/domain"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient implements domain.LLMClient using the Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	system    string
	maxTokens int64
}

func NewAnthropicClient(apiKey, baseURL, model, system string, maxTokens int, opts ...anthropicoption.RequestOption) *AnthropicClient {
	reqOpts := []anthropicoption.RequestOption{anthropicoption.WithAPIKey(apiKey), anthropicoption.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, anthropicoption.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	mt := int64(maxTokens)
	if mt <= 0 {
		mt = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(reqOpts...),
		model:     model,
		system:    system,
		maxTokens: mt,
	}
}

func (c *AnthropicClient) GenerateReply(ctx context.Context, convCtx domain.ConversationContext) (string, error) {
	p := BuildPrompt(c.system, convCtx)

	msgs := make([]anthropic.MessageParam, 0, len(p.Messages))
	for _, m := range p.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == domain.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		Messages:  msgs,
		MaxTokens: c.maxTokens,
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("anthropic returned empty text")
	}
	return text, nil
}
