// Package token implements signing and verification of the storefront's
// self-contained access and refresh tokens. Tokens are HS256 JWTs carrying
// the subject identity, auxiliary claims and a type tag; the type tag binds
// a token to the verification context it may be presented to, so an access
// token can never be exchanged as a refresh token or vice versa.
package token

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/web-storefront/internal/config"
)

// Token type tags embedded in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const issuer = "web-storefront"

// Sentinel errors returned by Validate. Expiry is reported separately from
// all other failure modes so the refresh flow can distinguish a stale but
// otherwise genuine token from garbage.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the fixed, strongly typed claim set carried by every token.
// UserID, Email and Role are optional per token type: refresh tokens omit
// Email and Role. The embedded RegisteredClaims supply subject (username),
// a unique token id, issued-at and expiry.
type Claims struct {
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens. It is constructed once at process start
// from the loaded configuration and shared by reference; it holds no other
// state and is safe for concurrent use. None of its methods perform I/O.
type Codec struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time // overridable in tests
}

// NewCodec builds a Codec from config. When no distinct refresh secret is
// configured the refresh key falls back to the access key. That is a
// documented degraded mode, not an error, but it is logged so operators can
// detect the misconfiguration.
func NewCodec(cfg config.Config) *Codec {
	refreshKey := []byte(cfg.RefreshSecret)
	if cfg.RefreshSecret == "" {
		log.Printf("token: JWT_REFRESH_SECRET not set; refresh tokens will be signed with the access secret")
		refreshKey = []byte(cfg.AccessSecret)
	}
	return &Codec{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: refreshKey,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccessToken signs a short-lived access token embedding the full
// identity claim set. Every token carries a fresh jti: iat and exp have
// second precision, so without it two issuances inside the same second
// would be byte-identical credentials.
func (c *Codec) IssueAccessToken(userID, username, email, role string) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessKey)
}

// IssueRefreshToken signs a long-lived refresh token. Only the subject and
// user id travel in it; email and role are re-resolved at refresh time.
// The jti makes each issuance unique: rotation and revocation key off the
// token bytes, so a rotated-in token must never equal the one it replaces.
func (c *Codec) IssueRefreshToken(userID, username string) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:    userID,
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshKey)
}

// Validate verifies the signature of raw against the key for expectedType
// and returns the decoded claims. It returns ErrExpiredToken for a
// well-formed token whose expiry has passed (expiresAt <= now is expired,
// no grace skew) and ErrInvalidToken for every other failure: malformed
// encoding, signature mismatch, missing expiry or a type tag that does not
// match expectedType. A token signed with the wrong key for its type fails
// signature verification here rather than silently degrading.
func (c *Codec) Validate(raw, expectedType string) (Claims, error) {
	key := c.accessKey
	if expectedType == TypeRefresh {
		key = c.refreshKey
	}
	claims, err := c.parse(raw, key)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != expectedType {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// ExtractExpiry returns the expiry encoded in raw, trying the access key
// first and the refresh key second. On any parse failure it falls back to
// now+24h: callers use the result only to size blacklist TTLs and cookie
// max-age, where over-estimating is safe and under-estimating is not. The
// fallback is logged so a systematic parse problem is visible.
func (c *Codec) ExtractExpiry(raw string) time.Time {
	if claims, err := c.parseAny(raw); err == nil {
		return claims.ExpiresAt.Time
	}
	log.Printf("token: could not extract expiry, using 24h fallback")
	return c.now().Add(24 * time.Hour)
}

// RemainingTTL returns how long raw is still valid for, or zero when it is
// expired or cannot be decoded. Used to size blacklist entries on logout.
func (c *Codec) RemainingTTL(raw string) time.Duration {
	claims, err := c.parseAny(raw)
	if err != nil {
		return 0
	}
	if ttl := claims.ExpiresAt.Time.Sub(c.now()); ttl > 0 {
		return ttl
	}
	return 0
}

// parseAny decodes raw with whichever signing key verifies it, ignoring the
// expiry check so callers can inspect the expiry of already-expired tokens.
func (c *Codec) parseAny(raw string) (Claims, error) {
	for _, key := range [][]byte{c.accessKey, c.refreshKey} {
		if claims, err := c.parse(raw, key); err == nil || errors.Is(err, ErrExpiredToken) {
			return claims, nil
		}
	}
	return Claims{}, ErrInvalidToken
}

// parse verifies signature and decodes claims with the given key. Expiry is
// checked manually against the injected clock so the <=now boundary is
// exact and testable.
func (c *Codec) parse(raw string, key []byte) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return claims, ErrExpiredToken
	}
	return claims, nil
}
