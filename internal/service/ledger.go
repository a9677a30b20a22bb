package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/web-storefront/internal/model"
	"github.com/iliyamo/web-storefront/internal/token"
	"github.com/iliyamo/web-storefront/internal/utils"
)

// RefreshTokenStore is the persistence surface the ledger needs. It is
// satisfied by repository.RefreshTokenRepo and by in-memory fakes in tests.
type RefreshTokenStore interface {
	Insert(ctx context.Context, rec model.RefreshTokenRecord) error
	ListUnrevokedByUser(ctx context.Context, userID string) ([]model.RefreshTokenRecord, error)
	RevokeByID(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Ledger is the credential store for refresh tokens. A raw token is never
// persisted: it is reduced to a SHA-256 digest and then bcrypt-hashed, so a
// leaked ledger cannot be replayed and cannot be brute-forced cheaply. The
// digest step is mandatory: bcrypt caps input at 72 bytes and would
// otherwise truncate the token silently.
type Ledger struct {
	store RefreshTokenStore
	codec *token.Codec
	cost  int
	now   func() time.Time
}

func NewLedger(store RefreshTokenStore, codec *token.Codec, bcryptCost int) *Ledger {
	return &Ledger{
		store: store,
		codec: codec,
		cost:  bcryptCost,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Save hashes rawToken and inserts a ledger record owned by userID.
func (l *Ledger) Save(ctx context.Context, userID, rawToken string, expiresAt time.Time) (model.RefreshTokenRecord, error) {
	hash, err := utils.HashPassword(utils.DigestToken(rawToken), l.cost)
	if err != nil {
		return model.RefreshTokenRecord{}, err
	}
	rec := model.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: l.now(),
	}
	if err := l.store.Insert(ctx, rec); err != nil {
		return model.RefreshTokenRecord{}, err
	}
	return rec, nil
}

// FindByRawToken resolves the ledger record backing rawToken. The token's
// type claim is checked before any lookup; candidates are resolved by the
// user id embedded in the token, and only that user's own non-revoked
// records are compared, so timing reveals nothing about other users'
// ledgers. Returns ErrInvalidToken when nothing matches.
func (l *Ledger) FindByRawToken(ctx context.Context, rawToken string) (model.RefreshTokenRecord, error) {
	claims, err := l.codec.Validate(rawToken, token.TypeRefresh)
	if err != nil || claims.UserID == "" {
		return model.RefreshTokenRecord{}, ErrInvalidToken
	}
	recs, err := l.store.ListUnrevokedByUser(ctx, claims.UserID)
	if err != nil {
		return model.RefreshTokenRecord{}, err
	}
	digest := utils.DigestToken(rawToken)
	for _, rec := range recs {
		if utils.VerifyPassword(rec.TokenHash, digest) {
			return rec, nil
		}
	}
	return model.RefreshTokenRecord{}, ErrInvalidToken
}

// Revoke marks rec revoked. Revoking an already-revoked record is a no-op.
func (l *Ledger) Revoke(ctx context.Context, rec model.RefreshTokenRecord) error {
	if rec.Revoked {
		return nil
	}
	return l.store.RevokeByID(ctx, rec.ID)
}

// RevokeAllForUser revokes every active record for the user. Called on
// every successful login so the latest issuance is the sole live session.
func (l *Ledger) RevokeAllForUser(ctx context.Context, userID string) error {
	return l.store.RevokeAllForUser(ctx, userID)
}

// Rotate retires old and records newRawToken in its place. The revoke runs
// first: if the process dies between the two writes the old token is
// already unusable, which fails closed rather than leaving two live tokens.
func (l *Ledger) Rotate(ctx context.Context, old model.RefreshTokenRecord, newRawToken string, newExpiry time.Time) (model.RefreshTokenRecord, error) {
	if err := l.Revoke(ctx, old); err != nil {
		return model.RefreshTokenRecord{}, err
	}
	return l.Save(ctx, old.UserID, newRawToken, newExpiry)
}

// SweepExpired deletes rows that expired before now. Exposed for the
// background maintenance loop; validation never depends on it.
func (l *Ledger) SweepExpired(ctx context.Context) (int64, error) {
	return l.store.DeleteExpired(ctx, l.now())
}
