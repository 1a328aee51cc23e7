package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/chatpro/internal/domain"
)

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("a", 31)

	tests := []struct {
		name  string
		turns []domain.Turn
		want  string
	}{
		{name: "no turns", turns: nil, want: domain.DefaultTitle},
		{name: "only assistant", turns: []domain.Turn{domain.AssistantTurn("hi")}, want: domain.DefaultTitle},
		{name: "blank user turn", turns: []domain.Turn{domain.UserTurn("   ")}, want: domain.DefaultTitle},
		{name: "short", turns: []domain.Turn{domain.UserTurn("What is Go?")}, want: "What is Go?"},
		{name: "exactly thirty", turns: []domain.Turn{domain.UserTurn(strings.Repeat("b", 30))}, want: strings.Repeat("b", 30)},
		{name: "truncated", turns: []domain.Turn{domain.UserTurn(long)}, want: strings.Repeat("a", 30) + "..."},
		{
			name:  "first user turn wins",
			turns: []domain.Turn{domain.AssistantTurn("welcome"), domain.UserTurn("first"), domain.UserTurn("second")},
			want:  "first",
		},
		{name: "multibyte runes", turns: []domain.Turn{domain.UserTurn(strings.Repeat("é", 32))}, want: strings.Repeat("é", 30) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveTitle(tt.turns))
		})
	}
}

func TestSessionIDValidate(t *testing.T) {
	valid := []domain.SessionID{"1718000000000", "abc-DEF_1.2", "__x", "x__", "___", domain.SessionID(strings.Repeat("x", 128))}
	for _, id := range valid {
		assert.NoError(t, id.Validate(), "id %q", id)
	}

	invalid := []domain.SessionID{"", "new", "has space", "slash/id", ".", "..", "__x__", "____", domain.SessionID(strings.Repeat("x", 129))}
	for _, id := range invalid {
		assert.ErrorIs(t, id.Validate(), domain.ErrInvalidSessionID, "id %q", id)
	}
}

func TestSessionClone(t *testing.T) {
	s := &domain.Session{ID: "1", Turns: []domain.Turn{domain.UserTurn("a")}}
	c := s.Clone()
	c.Turns[0].Content = "changed"
	c.Turns = append(c.Turns, domain.AssistantTurn("b"))

	assert.Equal(t, "a", s.Turns[0].Content)
	assert.Len(t, s.Turns, 1)
	assert.Nil(t, (*domain.Session)(nil).Clone())
}
