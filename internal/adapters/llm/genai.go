package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/chatpro/internal/domain"
)

type GenAIClient struct {
	client    *genai.Client
	modelName string
	system    string
	maxTokens int32
}

// GenAIOptions selects between the Gemini Developer API (APIKey set) and
// Vertex AI (Project and Location set).
type GenAIOptions struct {
	APIKey    string
	Project   string
	Location  string
	BaseURL   string
	Model     string
	System    string
	MaxTokens int
}

// NewGenAIClient creates an LLMClient based on Gemini, either through the
// Developer API or Vertex AI.
func NewGenAIClient(ctx context.Context, opts GenAIOptions) (*GenAIClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case opts.APIKey != "":
		cc.APIKey = opts.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case opts.Project != "" && opts.Location != "":
		cc.Project = opts.Project
		cc.Location = opts.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("genai: either an API key or a GCP project and location must be set")
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GenAIClient{
		client:    client,
		modelName: model,
		system:    opts.System,
		maxTokens: int32(opts.MaxTokens),
	}, nil
}

// GenerateReply implements domain.LLMClient using Gemini.
func (g *GenAIClient) GenerateReply(ctx context.Context, convCtx domain.ConversationContext) (string, error) {
	p := BuildPrompt(g.system, convCtx)

	contents := make([]*genai.Content, 0, len(p.Messages))
	for _, m := range p.Messages {
		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{}
	if p.System != "" {
		// According to official examples, the role here is usually RoleUser, not "system"
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = g.maxTokens
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	// Text() concatenates the text parts of the first candidate.
	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("genai returned empty text")
	}

	return text, nil
}
