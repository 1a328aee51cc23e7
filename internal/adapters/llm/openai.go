package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/PabloGalante/chatpro/internal/domain"
)

// OpenAIClient implements domain.LLMClient for OpenAI and any
// OpenAI-compatible endpoint (set baseURL).
type OpenAIClient struct {
	client    openai.Client
	model     string
	system    string
	maxTokens int
}

func NewOpenAIClient(apiKey, baseURL, model, system string, maxTokens int, opts ...option.RequestOption) *OpenAIClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	// Exactly one attempt per call.
	reqOpts = append(reqOpts, option.WithMaxRetries(0))
	reqOpts = append(reqOpts, opts...)

	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client:    openai.NewClient(reqOpts...),
		model:     model,
		system:    system,
		maxTokens: maxTokens,
	}
}

func (c *OpenAIClient) GenerateReply(ctx context.Context, convCtx domain.ConversationContext) (string, error) {
	p := BuildPrompt(c.system, convCtx)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Messages)+1)
	if p.System != "" {
		msgs = append(msgs, openai.SystemMessage(p.System))
	}
	for _, m := range p.Messages {
		switch m.Role {
		case domain.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	text := completion.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openai returned empty text")
	}
	return text, nil
}
