package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStoreWithClient(client, time.Hour), mr
}

func TestCreateAndLookup(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, Principal{UserID: 1, Username: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, principal.UserID)
	assert.Equal(t, "alice", principal.Username)
}

func TestLookupUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Lookup(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLookupAfterExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, Principal{UserID: 1, Username: "alice"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Lookup(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLookupRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, Principal{UserID: 1, Username: "alice"})
	require.NoError(t, err)

	mr.FastForward(30 * time.Minute)
	_, err = store.Lookup(ctx, token)
	require.NoError(t, err)

	// The refresh at lookup pushed expiry a full hour out again.
	mr.FastForward(45 * time.Minute)
	_, err = store.Lookup(ctx, token)
	require.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, Principal{UserID: 1, Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, token))

	_, err = store.Lookup(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
