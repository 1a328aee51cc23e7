package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PabloGalante/chatpro/internal/domain"
	"github.com/PabloGalante/chatpro/internal/observability"
)

type Service struct {
	llm          domain.LLMClient
	sessionStore domain.SessionStore
	now          func() time.Time
	replyTimeout time.Duration

	locks sessionLocks
}

type Option func(*Service)

// WithReplyTimeout bounds each provider call. Zero means no extra bound.
func WithReplyTimeout(d time.Duration) Option {
	return func(s *Service) { s.replyTimeout = d }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(llm domain.LLMClient, sessionStore domain.SessionStore, opts ...Option) *Service {
	s := &Service{
		llm:          llm,
		sessionStore: sessionStore,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	log := observability.LoggerFromContext(ctx)

	sessions, err := s.sessionStore.ListSessions(ctx)
	if err != nil {
		log.Error("failed to list sessions", zap.Error(err))
		return nil, err
	}

	log.Debug("listed sessions", zap.Int("count", len(sessions)))
	return sessions, nil
}

// GetTranscript returns the ordered turns of one session.
func (s *Service) GetTranscript(ctx context.Context, sessionID domain.SessionID) ([]domain.Turn, error) {
	log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(sessionID)))

	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			log.Info("session not found")
		} else {
			log.Error("failed to get session", zap.Error(err))
		}
		return nil, err
	}

	log.Info("fetched session transcript", zap.Int("turn_count", len(session.Turns)))
	return session.Turns, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

type SendMessageOutput struct {
	Reply   string
	Session *domain.Session
}

// SendMessage appends the user turn, asks the provider for a reply and
// persists both turns together. If the provider fails nothing is saved.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if err := in.SessionID.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.ErrEmptyMessage
	}

	log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(in.SessionID)))

	unlock := s.locks.lock(in.SessionID)
	defer unlock()

	session, isNew, err := s.loadOrCreate(ctx, in.SessionID)
	if err != nil {
		log.Error("failed to load session", zap.Error(err))
		return nil, err
	}
	log.Info("sending message", zap.Bool("new_session", isNew), zap.Int("history_len", len(session.Turns)))

	session.Turns = append(session.Turns, domain.UserTurn(in.Text))

	reply, err := s.generateReply(ctx, session)
	if err != nil {
		// The user turn only ever lived in memory; dropping it restores
		// the stored session exactly.
		session.Turns = session.Turns[:len(session.Turns)-1]
		log.Error("completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err)
	}

	session.Turns = append(session.Turns, domain.AssistantTurn(reply))
	if session.Title == domain.DefaultTitle {
		session.Title = domain.DeriveTitle(session.Turns)
	}
	session.UpdatedAt = s.now()

	if err := s.sessionStore.SaveSession(ctx, session); err != nil {
		log.Error("failed to save session", zap.Error(err))
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Info("send message completed", zap.String("title", session.Title), zap.Int("turn_count", len(session.Turns)))

	return &SendMessageOutput{
		Reply:   reply,
		Session: session,
	}, nil
}

func (s *Service) loadOrCreate(ctx context.Context, id domain.SessionID) (*domain.Session, bool, error) {
	session, err := s.sessionStore.GetSession(ctx, id)
	if err == nil {
		return session, false, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, err
	}

	now := s.now()
	return &domain.Session{
		ID:        id,
		Title:     domain.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

func (s *Service) generateReply(ctx context.Context, session *domain.Session) (string, error) {
	if s.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.replyTimeout)
		defer cancel()
	}

	start := s.now()
	reply, err := s.llm.GenerateReply(ctx, domain.ConversationContext{
		SessionID: session.ID,
		History:   session.Turns,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("provider returned an empty reply")
	}

	observability.LoggerFromContext(ctx).Debug("completion received",
		zap.String("session_id", string(session.ID)),
		zap.Duration("latency", s.now().Sub(start)),
	)
	return reply, nil
}

func (s *Service) DeleteSession(ctx context.Context, sessionID domain.SessionID) error {
	log := observability.LoggerFromContext(ctx).With(zap.String("session_id", string(sessionID)))

	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.sessionStore.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			log.Info("delete of unknown session")
		} else {
			log.Error("failed to delete session", zap.Error(err))
		}
		return err
	}

	log.Info("session deleted")
	return nil
}
