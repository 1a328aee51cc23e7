package domain

// Turn is one message in a session transcript.
type Turn struct {
	Role    Role
	Sender  Sender
	Content string
}

// UserTurn builds a turn typed by the user.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Sender: SenderUser, Content: content}
}

// AssistantTurn builds a turn produced by the completion provider.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Sender: SenderAI, Content: content}
}

// Session is a persisted conversation. Turns are kept in the order they
// were exchanged and always come in user/assistant pairs once saved.
type Session struct {
	ID        SessionID
	Title     string
	CreatedAt Timestamp
	UpdatedAt Timestamp
	Turns     []Turn
}

// SessionSummary is the sidebar view of a session.
type SessionSummary struct {
	ID        SessionID
	Title     string
	CreatedAt Timestamp
}

// Summary returns the sidebar view of s.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt}
}

// Clone returns a copy of s that shares no turn storage with it.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Turns = append([]Turn(nil), s.Turns...)
	return &out
}
