package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot-dev/adspot/internal/database/dbtest"
	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/guard"
)

func next(t *testing.T, ch <-chan guard.Session) guard.Session {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "session channel closed")
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session")
		return guard.Session{}
	}
}

func TestSessionWatcher_ResolvesThenRevokes(t *testing.T) {
	db := dbtest.Open(t)
	tokens := NewTokens("secret", time.Hour)
	user := createUser(t, db, "admin@example.com")
	other := createUser(t, db, "other@example.com")
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	token, err := tokens.Generate(user.ID, user.Email, 0)
	require.NoError(t, err)

	w := NewSessionWatcher(db, tokens, bus, token, zerolog.Nop())
	sessions, stop, err := w.Subscribe(context.Background())
	require.NoError(t, err)
	defer stop()

	assert.Equal(t, guard.Session{Resolving: true}, next(t, sessions))
	assert.Equal(t, guard.Session{Identity: user.ID}, next(t, sessions))

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, events.TopicSessionRevoked, events.SessionRevoked{UserID: other.ID}))
	require.NoError(t, bus.Publish(ctx, events.TopicSessionRevoked, events.SessionRevoked{UserID: user.ID}))

	assert.Equal(t, guard.Session{}, next(t, sessions))

	_, ok := <-sessions
	assert.False(t, ok, "channel closes after the final state")
}

func TestSessionWatcher_InvalidToken(t *testing.T) {
	db := dbtest.Open(t)
	w := NewSessionWatcher(db, NewTokens("secret", time.Hour), nil, "garbage", zerolog.Nop())

	sessions, stop, err := w.Subscribe(context.Background())
	require.NoError(t, err)
	defer stop()

	assert.Equal(t, guard.Session{Resolving: true}, next(t, sessions))
	assert.Equal(t, guard.Session{}, next(t, sessions))
}

func TestSessionWatcher_Expiry(t *testing.T) {
	db := dbtest.Open(t)
	tokens := NewTokens("secret", 2*time.Second)
	user := createUser(t, db, "admin@example.com")

	token, err := tokens.Generate(user.ID, user.Email, 0)
	require.NoError(t, err)

	w := NewSessionWatcher(db, tokens, nil, token, zerolog.Nop())
	sessions, stop, err := w.Subscribe(context.Background())
	require.NoError(t, err)
	defer stop()

	assert.Equal(t, guard.Session{Resolving: true}, next(t, sessions))
	assert.Equal(t, guard.Session{Identity: user.ID}, next(t, sessions))
	assert.Equal(t, guard.Session{}, next(t, sessions))
}

func TestSessionWatcher_StopBeforeRead(t *testing.T) {
	db := dbtest.Open(t)
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })

	w := NewSessionWatcher(db, NewTokens("secret", time.Hour), bus, "garbage", zerolog.Nop())
	_, stop, err := w.Subscribe(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		stop()
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop blocked")
	}
}
