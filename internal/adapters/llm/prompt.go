package llm

import (
	"strings"

	"github.com/PabloGalante/chatpro/internal/domain"
)

// Prompt is the provider-neutral request: an optional system instruction
// plus the replayed transcript.
type Prompt struct {
	System   string
	Messages []domain.Turn
}

// BuildPrompt replays the session history for a provider. Blank turns are
// dropped and consecutive turns of the same role are merged, since the
// Anthropic and Gemini APIs reject non-alternating transcripts.
func BuildPrompt(system string, convCtx domain.ConversationContext) Prompt {
	msgs := make([]domain.Turn, 0, len(convCtx.History))
	for _, t := range convCtx.History {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}

		role := t.Role
		if role != domain.RoleAssistant {
			role = domain.RoleUser
		}

		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + content
			continue
		}
		msgs = append(msgs, domain.Turn{Role: role, Sender: t.Sender, Content: content})
	}

	return Prompt{
		System:   strings.TrimSpace(system),
		Messages: msgs,
	}
}
