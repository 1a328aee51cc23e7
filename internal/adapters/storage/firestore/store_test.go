package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/chatpro/internal/domain"
)

func TestSessionDocMapping(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	in := &domain.Session{
		ID:        "1714557600000",
		Title:     "Hello",
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
		Turns:     []domain.Turn{domain.UserTurn("Hello"), domain.AssistantTurn("Hi")},
	}

	doc := toSessionDoc(in)
	assert.Equal(t, "user", doc.Turns[0].Sender)
	assert.Equal(t, "ai", doc.Turns[1].Sender)

	if diff := cmp.Diff(in, fromSessionDoc(in.ID, doc)); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestStoreAgainstEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()

	store, err := NewStore(ctx, "chatpro-test", "sessions_"+time.Now().Format("150405.000000"))
	require.NoError(t, err)
	defer store.Close()

	older := &domain.Session{ID: "1", Title: "older", CreatedAt: time.Now().Add(-time.Hour).UTC()}
	newer := &domain.Session{ID: "2", Title: "newer", CreatedAt: time.Now().UTC(), Turns: []domain.Turn{domain.UserTurn("q"), domain.AssistantTurn("a")}}
	require.NoError(t, store.SaveSession(ctx, older))
	require.NoError(t, store.SaveSession(ctx, newer))

	list, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.SessionID("2"), list[0].ID)

	got, err := store.GetSession(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, got.Turns, 2)

	require.NoError(t, store.DeleteSession(ctx, "2"))
	assert.ErrorIs(t, store.DeleteSession(ctx, "2"), domain.ErrSessionNotFound)
	_, err = store.GetSession(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
