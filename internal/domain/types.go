package domain

import (
	"fmt"
	"strings"
	"time"
)

type SessionID string

// NewSessionID is the id the client uses for a conversation that has not
// been sent yet. It never reaches the store.
const NewSessionID SessionID = "new"

const maxSessionIDLen = 128

// Validate checks that the id is safe to use as a document key.
func (id SessionID) Validate() error {
	if id == "" || id == NewSessionID || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	// Document stores reserve __name__ style keys.
	if len(id) >= 4 && strings.HasPrefix(string(id), "__") && strings.HasSuffix(string(id), "__") {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSessionID, id)
	}
	if len(id) > maxSessionIDLen {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSessionID, maxSessionIDLen)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidSessionID, r)
		}
	}
	return nil
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Sender is the tag the web client renders bubbles by.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type Timestamp = time.Time
