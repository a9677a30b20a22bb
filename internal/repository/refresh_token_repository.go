package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/web-storefront/internal/model"
)

// RefreshTokenRepo persists the refresh-token ledger (hashed tokens only;
// the raw value never reaches this layer).
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Insert stores a ledger row.
func (r *RefreshTokenRepo) Insert(ctx context.Context, rec model.RefreshTokenRecord) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked) VALUES (?,?,?,?,0)",
		rec.ID, rec.UserID, rec.TokenHash, rec.ExpiresAt)
	return err
}

// ListUnrevokedByUser returns every non-revoked record for a user, newest
// first. Expired rows are included on purpose: the ledger service judges
// expiry itself so it can revoke a stale record on sight instead of
// just not seeing it.
func (r *RefreshTokenRepo) ListUnrevokedByUser(ctx context.Context, userID string) ([]model.RefreshTokenRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked, created_at FROM refresh_tokens WHERE user_id=? AND revoked=0 ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.RefreshTokenRecord
	for rows.Next() {
		var rec model.RefreshTokenRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.Revoked, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RevokeByID marks one record as revoked. Revoking an already-revoked row
// matches zero rows and is not an error.
func (r *RefreshTokenRepo) RevokeByID(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE id=? AND revoked=0", id)
	return err
}

// RevokeAllForUser revokes all of the user's active tokens.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	return err
}

// DeleteExpired removes rows whose expiry passed before cutoff. Correctness
// never depends on this sweep; it only keeps the table from growing
// without bound.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
