package domain

import "context"

// LLMClient defines how the core application interacts with a completion provider.
type LLMClient interface {
	GenerateReply(ctx context.Context, convCtx ConversationContext) (string, error)
}

// ConversationContext is what a provider sees for one completion.
// The last entry of History is the user turn being answered.
type ConversationContext struct {
	SessionID SessionID
	History   []Turn
}

// SessionStore defines session persistence. A session is stored and
// loaded as one document.
type SessionStore interface {
	// ListSessions returns summaries, newest first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	// SaveSession creates or replaces the session document.
	SaveSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, id SessionID) error
	Close() error
}
