package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PabloGalante/chatpro/internal/domain"
)

const connectTimeout = 10 * time.Second

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStore connects to uri and makes sure the unique index on the
// session id exists.
func NewStore(ctx context.Context, uri, database, collection string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("uri is required for Mongo store")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}

	_, err = s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating mongo indexes: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ─────────────────────────────────────────
// Mongo Types
// ─────────────────────────────────────────

// sessionDoc keeps the field names of the mongoose-era schema so
// existing collections stay readable.
type sessionDoc struct {
	ID        string    `bson:"id"`
	Title     string    `bson:"title"`
	Date      time.Time `bson:"date"`
	UpdatedAt time.Time `bson:"updated_at,omitempty"`
	Messages  []turnDoc `bson:"messages"`
}

type turnDoc struct {
	Role    string `bson:"role"`
	Sender  string `bson:"sender"`
	Content string `bson:"content"`
}

func toSessionDoc(session *domain.Session) sessionDoc {
	msgs := make([]turnDoc, 0, len(session.Turns))
	for _, t := range session.Turns {
		msgs = append(msgs, turnDoc{Role: string(t.Role), Sender: string(t.Sender), Content: t.Content})
	}
	return sessionDoc{
		ID:        string(session.ID),
		Title:     session.Title,
		Date:      session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Messages:  msgs,
	}
}

func (d sessionDoc) toDomain() *domain.Session {
	turns := make([]domain.Turn, 0, len(d.Messages))
	for _, m := range d.Messages {
		turns = append(turns, domain.Turn{Role: domain.Role(m.Role), Sender: domain.Sender(m.Sender), Content: m.Content})
	}
	return &domain.Session{
		ID:        domain.SessionID(d.ID),
		Title:     d.Title,
		CreatedAt: d.Date,
		UpdatedAt: d.UpdatedAt,
		Turns:     turns,
	}
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "id", Value: 1}, {Key: "title", Value: 1}, {Key: "date", Value: 1}}).
		SetSort(bson.D{{Key: "date", Value: -1}})

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo ListSessions: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.SessionSummary
	for cur.Next(ctx) {
		var doc sessionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		out = append(out, domain.SessionSummary{
			ID:        domain.SessionID(doc.ID),
			Title:     doc.Title,
			CreatedAt: doc.Date,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo ListSessions cursor: %w", err)
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "id", Value: string(id)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo GetSession %s: %w", id, domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("mongo GetSession: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	_, err := s.coll.ReplaceOne(
		ctx,
		bson.D{{Key: "id", Value: string(session.ID)}},
		toSessionDoc(session),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo SaveSession: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "id", Value: string(id)}})
	if err != nil {
		return fmt.Errorf("mongo DeleteSession: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongo DeleteSession %s: %w", id, domain.ErrSessionNotFound)
	}
	return nil
}
