package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/chatpro/internal/domain"
)

// Store keeps each session as one row with its turns in a JSON column,
// so it behaves like the document stores.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path. ":memory:" is accepted.
func NewStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and writes serialised.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		turns_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC);
	`)
	return err
}

type turnRow struct {
	Role    string `json:"role"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

func (s *Store) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM sessions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListSessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var (
			id, title string
			created   int64
		)
		if err := rows.Scan(&id, &title, &created); err != nil {
			return nil, fmt.Errorf("sqlite ListSessions scan: %w", err)
		}
		out = append(out, domain.SessionSummary{
			ID:        domain.SessionID(id),
			Title:     title,
			CreatedAt: fromUnixNano(created),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite ListSessions rows: %w", err)
	}
	return out, nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var (
		title            string
		created, updated int64
		turnsJSON        string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, created_at, updated_at, turns_json FROM sessions WHERE id = ?`, string(id),
	).Scan(&title, &created, &updated, &turnsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sqlite GetSession %s: %w", id, domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("sqlite GetSession: %w", err)
	}

	var rows []turnRow
	if err := json.Unmarshal([]byte(turnsJSON), &rows); err != nil {
		return nil, fmt.Errorf("sqlite GetSession decode turns: %w", err)
	}
	turns := make([]domain.Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, domain.Turn{Role: domain.Role(r.Role), Sender: domain.Sender(r.Sender), Content: r.Content})
	}

	return &domain.Session{
		ID:        id,
		Title:     title,
		CreatedAt: fromUnixNano(created),
		UpdatedAt: fromUnixNano(updated),
		Turns:     turns,
	}, nil
}

func (s *Store) SaveSession(ctx context.Context, session *domain.Session) error {
	rows := make([]turnRow, 0, len(session.Turns))
	for _, t := range session.Turns {
		rows = append(rows, turnRow{Role: string(t.Role), Sender: string(t.Sender), Content: t.Content})
	}
	turnsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("sqlite SaveSession encode turns: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at, turns_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			turns_json = excluded.turns_json`,
		string(session.ID), session.Title,
		toUnixNano(session.CreatedAt), toUnixNano(session.UpdatedAt), string(turnsJSON),
	)
	if err != nil {
		return fmt.Errorf("sqlite SaveSession: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("sqlite DeleteSession: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite DeleteSession rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite DeleteSession %s: %w", id, domain.ErrSessionNotFound)
	}
	return nil
}

// Zero times are stored as 0; UnixNano is undefined for them.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
