package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/chatpro/internal/adapters/llm"
	"github.com/PabloGalante/chatpro/internal/adapters/storage/memory"
	"github.com/PabloGalante/chatpro/internal/app/conversation"
	"github.com/PabloGalante/chatpro/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubLLM records every history it is asked about and answers with fn.
type stubLLM struct {
	mu    sync.Mutex
	calls [][]domain.Turn
	fn    func(ctx context.Context, convCtx domain.ConversationContext) (string, error)
}

func (s *stubLLM) GenerateReply(ctx context.Context, convCtx domain.ConversationContext) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]domain.Turn(nil), convCtx.History...))
	s.mu.Unlock()
	return s.fn(ctx, convCtx)
}

func replyWith(text string) *stubLLM {
	return &stubLLM{fn: func(context.Context, domain.ConversationContext) (string, error) { return text, nil }}
}

func failWith(err error) *stubLLM {
	return &stubLLM{fn: func(context.Context, domain.ConversationContext) (string, error) { return "", err }}
}

// failingSaveStore wraps the memory store and fails every save.
type failingSaveStore struct {
	*memory.SessionStore
}

func (failingSaveStore) SaveSession(context.Context, *domain.Session) error {
	return errors.New("disk full")
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestSendMessageCreatesSessionWithDerivedTitle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	svc := conversation.NewService(replyWith("Go is a programming language."), store, conversation.WithClock(fixedClock()))

	out, err := svc.SendMessage(ctx, conversation.SendMessageInput{
		SessionID: "1714557600000",
		Text:      "Can you explain what the Go programming language is?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", out.Reply)

	stored, err := store.GetSession(ctx, "1714557600000")
	require.NoError(t, err)
	assert.Equal(t, "Can you explain what the Go pr...", stored.Title)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), stored.CreatedAt)
	require.Len(t, stored.Turns, 2)
	assert.Equal(t, domain.UserTurn("Can you explain what the Go programming language is?"), stored.Turns[0])
	assert.Equal(t, domain.AssistantTurn("Go is a programming language."), stored.Turns[1])
}

func TestSendMessageReplaysFullHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	stub := replyWith("ok")
	svc := conversation.NewService(stub, store)

	for _, text := range []string{"first", "second", "third"} {
		_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s1", Text: text})
		require.NoError(t, err)
	}

	require.Len(t, stub.calls, 3)
	last := stub.calls[2]
	require.Len(t, last, 5)
	assert.Equal(t, "first", last[0].Content)
	assert.Equal(t, domain.RoleAssistant, last[1].Role)
	assert.Equal(t, "third", last[4].Content)

	stored, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title, "title is derived once from the first user turn")
	assert.Len(t, stored.Turns, 6)
}

func TestSendMessageProviderFailureLeavesExistingSessionUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()

	before := &domain.Session{
		ID:        "s1",
		Title:     "Earlier chat",
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Turns:     []domain.Turn{domain.UserTurn("hi"), domain.AssistantTurn("hello")},
	}
	require.NoError(t, store.SaveSession(ctx, before))

	providerErr := errors.New("rate limited")
	svc := conversation.NewService(failWith(providerErr), store)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s1", Text: "are you there?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompletionFailed)
	assert.ErrorIs(t, err, providerErr)

	after, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSendMessageProviderFailureDoesNotCreateSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	svc := conversation.NewService(failWith(errors.New("boom")), store)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "fresh", Text: "hello"})
	require.ErrorIs(t, err, domain.ErrCompletionFailed)

	_, err = store.GetSession(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSendMessageBlankReplyIsAFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	svc := conversation.NewService(replyWith("   "), store)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s", Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrCompletionFailed)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	stub := replyWith("never")
	svc := conversation.NewService(stub, memory.NewSessionStore())

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s", Text: "  \n"})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "new", Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)

	_, err = svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "../etc", Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)

	assert.Empty(t, stub.calls)
}

func TestSendMessageSaveFailure(t *testing.T) {
	ctx := context.Background()
	svc := conversation.NewService(replyWith("ok"), failingSaveStore{memory.NewSessionStore()})

	out, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s", Text: "hello"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.NotErrorIs(t, err, domain.ErrCompletionFailed)
}

func TestSendMessageReplyTimeout(t *testing.T) {
	ctx := context.Background()
	slow := &stubLLM{fn: func(ctx context.Context, _ domain.ConversationContext) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := conversation.NewService(slow, memory.NewSessionStore(), conversation.WithReplyTimeout(20*time.Millisecond))

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s", Text: "hello"})
	assert.ErrorIs(t, err, domain.ErrCompletionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentSendsToOneSessionKeepEveryTurn(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	svc := conversation.NewService(llm.NewMockLLM(), store)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "shared", Text: fmt.Sprintf("msg %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := store.GetSession(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, stored.Turns, 2*n)
	for i, turn := range stored.Turns {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, turn.Role)
		} else {
			assert.Equal(t, domain.RoleAssistant, turn.Role)
		}
	}
	assert.True(t, strings.HasPrefix(stored.Title, "msg "))
}

func TestGetTranscriptAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	svc := conversation.NewService(replyWith("pong"), store)

	_, err := svc.GetTranscript(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: "s", Text: "ping"})
	require.NoError(t, err)

	turns, err := svc.GetTranscript(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{domain.UserTurn("ping"), domain.AssistantTurn("pong")}, turns)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ping", list[0].Title)

	require.NoError(t, svc.DeleteSession(ctx, "s"))
	assert.ErrorIs(t, svc.DeleteSession(ctx, "s"), domain.ErrSessionNotFound)
}
