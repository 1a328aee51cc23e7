package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/chatpro/internal/domain"
)

const defaultCollection = "sessions"

type Store struct {
	client     *firestore.Client
	collection string
}

// NewStore creates a Firestore store.
// Uses the project passed (CHATPRO_GCP_PROJECT).
func NewStore(ctx context.Context, projectID, collection string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}
	if collection == "" {
		collection = defaultCollection
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, collection: collection}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	Title     string    `firestore:"title"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
	Turns     []turnDoc `firestore:"turns"`
}

type turnDoc struct {
	Role    string `firestore:"role"`
	Sender  string `firestore:"sender"`
	Content string `firestore:"content"`
}

func toSessionDoc(session *domain.Session) sessionDoc {
	turns := make([]turnDoc, 0, len(session.Turns))
	for _, t := range session.Turns {
		turns = append(turns, turnDoc{Role: string(t.Role), Sender: string(t.Sender), Content: t.Content})
	}
	return sessionDoc{
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Turns:     turns,
	}
}

func fromSessionDoc(id domain.SessionID, doc sessionDoc) *domain.Session {
	turns := make([]domain.Turn, 0, len(doc.Turns))
	for _, t := range doc.Turns {
		turns = append(turns, domain.Turn{Role: domain.Role(t.Role), Sender: domain.Sender(t.Sender), Content: t.Content})
	}
	return &domain.Session{
		ID:        id,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Turns:     turns,
	}
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	iter := s.sessionsCol().
		Select("title", "created_at").
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []domain.SessionSummary
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListSessions: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}

		out = append(out, domain.SessionSummary{
			ID:        domain.SessionID(snap.Ref.ID),
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("firestore GetSession %s: %w", id, domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}

	return fromSessionDoc(id, doc), nil
}

func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	_, err := s.sessionDoc(session.ID).Set(ctx, toSessionDoc(session))
	if err != nil {
		return fmt.Errorf("firestore SaveSession: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) error {
	// Without the Exists precondition Firestore deletes silently.
	_, err := s.sessionDoc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("firestore DeleteSession %s: %w", id, domain.ErrSessionNotFound)
		}
		return fmt.Errorf("firestore DeleteSession: %w", err)
	}
	return nil
}
