package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/chatpro/internal/domain"
)

// MockLLM answers without any network call. Useful for local runs and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(ctx context.Context, convCtx domain.ConversationContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := BuildPrompt("", convCtx)
	if len(p.Messages) == 0 {
		return "", fmt.Errorf("mock: empty conversation")
	}
	last := p.Messages[len(p.Messages)-1]
	return fmt.Sprintf("You said %q. This is turn %d of the conversation.", last.Content, len(p.Messages)), nil
}
