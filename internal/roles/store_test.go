package roles

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/database/dbtest"
	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/models"
)

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestStore_GrantLookupRevoke(t *testing.T) {
	db := dbtest.Open(t)
	bus := events.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })
	changes, cancel, err := bus.Subscribe(events.TopicRoleChanged)
	require.NoError(t, err)
	defer cancel()

	store := NewStore(db, bus, zerolog.Nop())
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	ok, err := store.Lookup(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Grant(ctx, alice.ID, ""))
	require.NoError(t, store.Grant(ctx, alice.ID, ""), "granting twice is a no-op")
	require.NoError(t, store.Grant(ctx, bob.ID, alice.ID))

	ok, err = store.Lookup(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].User)
	assert.ElementsMatch(t,
		[]string{"alice@example.com", "bob@example.com"},
		[]string{list[0].User.Email, list[1].User.Email})

	require.NoError(t, store.Revoke(ctx, bob.ID, alice.ID))
	ok, err = store.Lookup(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var got []events.RoleChanged
	timeout := time.After(2 * time.Second)
	for len(got) < 4 {
		select {
		case payload := <-changes:
			event, err := events.Decode[events.RoleChanged](payload)
			require.NoError(t, err)
			got = append(got, event)
		case <-timeout:
			t.Fatalf("received %d role events, want 4", len(got))
		}
	}
	assert.Equal(t, events.RoleChanged{UserID: bob.ID, IsAdmin: false, ActorID: alice.ID}, got[3])
}

func TestStore_Errors(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db, nil, zerolog.Nop())
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	assert.ErrorIs(t, store.Grant(ctx, "missing", ""), ErrUserNotFound)
	assert.ErrorIs(t, store.Revoke(ctx, bob.ID, ""), ErrNotAdmin)

	require.NoError(t, store.Grant(ctx, alice.ID, ""))
	assert.ErrorIs(t, store.Revoke(ctx, alice.ID, ""), ErrLastAdmin)

	ok, err := store.Lookup(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_LookupErrorOnClosedDatabase(t *testing.T) {
	db := dbtest.Open(t)
	store := NewStore(db, nil, zerolog.Nop())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = store.Lookup(context.Background(), "u1")
	assert.Error(t, err)
}
