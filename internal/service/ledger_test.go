package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/web-storefront/internal/token"
	"github.com/iliyamo/web-storefront/internal/utils"
)

func newTestLedger(t *testing.T) (*Ledger, *memTokenStore, *token.Codec) {
	t.Helper()
	codec := newTestCodec()
	store := newMemTokenStore()
	return NewLedger(store, codec, bcrypt.MinCost), store, codec
}

func TestLedger_SaveStoresHashNotToken(t *testing.T) {
	ledger, store, codec := newTestLedger(t)
	ctx := context.Background()

	raw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)

	rec, err := ledger.Save(ctx, "u1", raw, codec.ExtractExpiry(raw))
	require.NoError(t, err)

	stored, ok := store.get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "u1", stored.UserID)
	assert.False(t, stored.Revoked)

	// The raw token must never be recoverable from what is at rest.
	assert.NotContains(t, stored.TokenHash, raw)
	assert.True(t, strings.HasPrefix(stored.TokenHash, "$2"))

	// Two-step hash: bcrypt is applied to the SHA-256 digest, not the raw
	// token, so tokens longer than bcrypt's 72-byte cap still verify fully.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.TokenHash), []byte(utils.DigestToken(raw))))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.TokenHash), []byte(raw)))
}

func TestLedger_FindByRawToken(t *testing.T) {
	ledger, _, codec := newTestLedger(t)
	ctx := context.Background()

	raw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)
	saved, err := ledger.Save(ctx, "u1", raw, codec.ExtractExpiry(raw))
	require.NoError(t, err)

	found, err := ledger.FindByRawToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
}

func TestLedger_FindByRawToken_UnknownToken(t *testing.T) {
	ledger, _, codec := newTestLedger(t)
	ctx := context.Background()

	// Structurally valid refresh token that was never saved.
	raw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)

	_, err = ledger.FindByRawToken(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLedger_FindByRawToken_RejectsAccessToken(t *testing.T) {
	ledger, _, codec := newTestLedger(t)
	ctx := context.Background()

	access, err := codec.IssueAccessToken("u1", "alice", "a@example.com", "USER")
	require.NoError(t, err)

	_, err = ledger.FindByRawToken(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLedger_FindByRawToken_Garbage(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	_, err := ledger.FindByRawToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLedger_RevokeIsIdempotent(t *testing.T) {
	ledger, store, codec := newTestLedger(t)
	ctx := context.Background()

	raw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)
	rec, err := ledger.Save(ctx, "u1", raw, codec.ExtractExpiry(raw))
	require.NoError(t, err)

	require.NoError(t, ledger.Revoke(ctx, rec))
	stored, _ := store.get(rec.ID)
	assert.True(t, stored.Revoked)

	// Revoking the already-revoked record must not error.
	require.NoError(t, ledger.Revoke(ctx, stored))

	// A revoked record is invisible to lookup.
	_, err = ledger.FindByRawToken(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLedger_Rotate(t *testing.T) {
	ledger, store, codec := newTestLedger(t)
	ctx := context.Background()

	oldRaw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)
	oldRec, err := ledger.Save(ctx, "u1", oldRaw, codec.ExtractExpiry(oldRaw))
	require.NoError(t, err)

	newRaw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)
	newRec, err := ledger.Rotate(ctx, oldRec, newRaw, codec.ExtractExpiry(newRaw))
	require.NoError(t, err)
	assert.NotEqual(t, oldRec.ID, newRec.ID)

	// The old record is retired, the new one resolves.
	stored, _ := store.get(oldRec.ID)
	assert.True(t, stored.Revoked)
	found, err := ledger.FindByRawToken(ctx, newRaw)
	require.NoError(t, err)
	assert.Equal(t, newRec.ID, found.ID)
}

func TestLedger_RevokeAllForUser(t *testing.T) {
	ledger, store, codec := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		raw, err := codec.IssueRefreshToken("u1", "alice")
		require.NoError(t, err)
		_, err = ledger.Save(ctx, "u1", raw, codec.ExtractExpiry(raw))
		require.NoError(t, err)
	}
	otherRaw, err := codec.IssueRefreshToken("u2", "bob")
	require.NoError(t, err)
	_, err = ledger.Save(ctx, "u2", otherRaw, codec.ExtractExpiry(otherRaw))
	require.NoError(t, err)

	require.NoError(t, ledger.RevokeAllForUser(ctx, "u1"))
	assert.Equal(t, 0, store.activeCount("u1"))
	assert.Equal(t, 1, store.activeCount("u2"))
}

func TestLedger_SweepExpired(t *testing.T) {
	ledger, store, codec := newTestLedger(t)
	ctx := context.Background()

	liveRaw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)
	live, err := ledger.Save(ctx, "u1", liveRaw, codec.ExtractExpiry(liveRaw))
	require.NoError(t, err)

	staleRaw, err := codec.IssueRefreshToken("u1", "alice")
	require.NoError(t, err)
	stale, err := ledger.Save(ctx, "u1", staleRaw, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	n, err := ledger.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok := store.get(stale.ID)
	assert.False(t, ok)
	_, ok = store.get(live.ID)
	assert.True(t, ok)
}
