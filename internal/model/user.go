package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – UUID primary key of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – name of the role (USER, SELLER or ADMIN).
//  Provider     – identity provider that created the account
//                 ("local" for password accounts, otherwise the
//                 OAuth2 provider name, e.g. "google").
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id (uuid)
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Provider     string    // users.provider
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Roles recognised by the storefront. USER is the default for
// self-registered and OAuth2 accounts.
const (
	RoleUser   = "USER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

// RefreshTokenRecord models an entry in the `refresh_tokens` table.
// Each record belongs to a user and contains metadata for expiry
// and revocation. The raw token is never stored; only a slow hash
// of its SHA-256 digest.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owner of the token.
//  TokenHash – bcrypt hash of the SHA-256 hex digest of the raw token.
//  ExpiresAt – expiration timestamp of the token.
//  Revoked   – whether the token has been revoked.
//  CreatedAt – timestamp of creation.
type RefreshTokenRecord struct {
	ID        string    // refresh_tokens.id (uuid)
	UserID    string    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	Revoked   bool      // refresh_tokens.revoked
	CreatedAt time.Time // refresh_tokens.created_at
}

// Active reports whether the record can still be exchanged: not
// revoked and not past its expiry.
func (r RefreshTokenRecord) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}
