package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/web-storefront/internal/model"
	"github.com/iliyamo/web-storefront/internal/queue"
	"github.com/iliyamo/web-storefront/internal/repository"
	"github.com/iliyamo/web-storefront/internal/token"
	"github.com/iliyamo/web-storefront/internal/utils"
)

// UserStore is the identity capability the auth service consumes. It is
// satisfied by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, username, email, password, role string, cost int) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (model.User, error)
}

// TokenPair is the outcome of a successful login, OAuth2 completion or
// refresh: a fresh access+refresh pair plus the expiry windows in
// milliseconds, mirroring what goes on the wire.
type TokenPair struct {
	User             model.User
	TokenType        string
	AccessToken      string
	AccessExpiresIn  int64 // milliseconds
	RefreshToken     string
	RefreshExpiresIn int64 // milliseconds
}

// RegisterInput carries a registration request into the service.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthService orchestrates the token lifecycle. It is the only writer of
// the refresh-token ledger and the only writer of the blacklist; every
// method is safe under concurrent calls for the same user. When two logins
// race, the last ledger save to commit wins as the sole active session and
// the loser's refresh token simply fails its next lookup. That is the
// single-session policy, not a consistency bug.
type AuthService struct {
	codec      *token.Codec
	users      UserStore
	ledger     *Ledger
	blacklist  *Blacklist
	events     SessionEventPublisher
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(codec *token.Codec, users UserStore, ledger *Ledger, blacklist *Blacklist, events SessionEventPublisher, bcryptCost int) *AuthService {
	return &AuthService{
		codec:      codec,
		users:      users,
		ledger:     ledger,
		blacklist:  blacklist,
		events:     events,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a USER-role account. Username and email must be unique
// and the password must match its confirmation.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if in.Password == "" || in.Password != in.ConfirmPassword {
		return model.User{}, ErrPasswordMismatch
	}
	u, err := s.users.Create(ctx, in.Username, in.Email, in.Password, model.RoleUser, s.bcryptCost)
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return model.User{}, ErrUsernameExists
	case errors.Is(err, repository.ErrEmailExists):
		return model.User{}, ErrEmailExists
	case err != nil:
		return model.User{}, err
	}
	return u, nil
}

// Login authenticates by username-or-email plus password and issues a
// fresh token pair. All previously issued refresh tokens for the user are
// revoked first, so exactly one non-revoked ledger record survives.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return TokenPair{}, ErrUnauthenticated
	}
	u, err := s.users.GetByUsernameOrEmail(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrUnauthenticated
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrUnauthenticated
	}
	return s.issuePair(ctx, u, queue.SessionLogin)
}

// CompleteOAuthLogin issues a token pair for a user already authenticated
// by an external identity provider. The provider-specific negotiation
// happens elsewhere; by the time this runs the provider layer has resolved
// a local user id. Session semantics are identical to Login: revoke all,
// then save the new record.
func (s *AuthService) CompleteOAuthLogin(ctx context.Context, userID string) (TokenPair, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrUserNotFound
	}
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(ctx, u, queue.SessionLogin)
}

// Refresh exchanges a refresh token for a new pair, rotating the ledger
// record. A refresh token is single-use: once rotated, presenting it again
// finds no matching non-revoked record and fails.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	if _, err := s.codec.Validate(rawRefresh, token.TypeRefresh); err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	rec, err := s.ledger.FindByRawToken(ctx, rawRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	if !rec.Active(s.now()) {
		// A found-but-stale record is retired on the spot so it cannot
		// resurface. Revoke is idempotent, so this is safe to repeat.
		_ = s.ledger.Revoke(ctx, rec)
		return TokenPair{}, ErrTokenExpired
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return TokenPair{}, err
	}

	accessToken, err := s.codec.IssueAccessToken(u.ID, u.Username, u.Email, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	newRefresh, err := s.codec.IssueRefreshToken(u.ID, u.Username)
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.ledger.Rotate(ctx, rec, newRefresh, s.codec.ExtractExpiry(newRefresh)); err != nil {
		return TokenPair{}, err
	}
	s.publish(ctx, u, queue.SessionRefresh)
	return s.pair(u, accessToken, newRefresh), nil
}

// Logout revokes the refresh token's ledger record. Only a malformed,
// wrong-type or bad-signature refresh token rejects the request; a
// well-formed token with no live record (already rotated out or revoked)
// is a no-op on the ledger side, since logout is idempotent and the client
// may legitimately hold a superseded token. When an access token is also
// surrendered and still carries lifetime, it is blacklisted for its
// remaining TTL so it dies immediately rather than at natural expiry. A
// blacklist write failure is logged and swallowed: the refresh-side
// revocation is the authoritative logout guarantee and the user-visible
// request must not fail over best-effort invalidation.
func (s *AuthService) Logout(ctx context.Context, rawRefresh, rawAccess string) error {
	claims, err := s.codec.Validate(rawRefresh, token.TypeRefresh)
	if err != nil {
		return ErrInvalidToken
	}
	rec, err := s.ledger.FindByRawToken(ctx, rawRefresh)
	switch {
	case errors.Is(err, ErrInvalidToken):
		// No live record behind the token: nothing left to revoke. The
		// access token below is still taken out of circulation.
	case err != nil:
		return err
	default:
		if err := s.ledger.Revoke(ctx, rec); err != nil {
			return err
		}
	}
	if strings.TrimSpace(rawAccess) != "" {
		if ttl := s.codec.RemainingTTL(rawAccess); ttl > 0 {
			if err := s.blacklist.Add(ctx, rawAccess, ttl); err != nil {
				log.Printf("auth: unable to blacklist access token on logout: %v", err)
			}
		}
	}
	if u, err := s.users.GetByID(ctx, claims.UserID); err == nil {
		s.publish(ctx, u, queue.SessionLogout)
	}
	return nil
}

// issuePair revokes all prior refresh records for u and issues and saves a
// new pair. The ledger write happens before the pair is returned: a caller
// that goes away mid-call orphans a perfectly valid record instead of
// holding a token whose record never persisted.
func (s *AuthService) issuePair(ctx context.Context, u model.User, eventKind string) (TokenPair, error) {
	accessToken, err := s.codec.IssueAccessToken(u.ID, u.Username, u.Email, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.codec.IssueRefreshToken(u.ID, u.Username)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.ledger.RevokeAllForUser(ctx, u.ID); err != nil {
		return TokenPair{}, err
	}
	if _, err := s.ledger.Save(ctx, u.ID, refreshToken, s.codec.ExtractExpiry(refreshToken)); err != nil {
		return TokenPair{}, err
	}
	s.publish(ctx, u, eventKind)
	return s.pair(u, accessToken, refreshToken), nil
}

func (s *AuthService) pair(u model.User, accessToken, refreshToken string) TokenPair {
	return TokenPair{
		User:             u,
		TokenType:        "Bearer",
		AccessToken:      accessToken,
		AccessExpiresIn:  s.codec.AccessTTL().Milliseconds(),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: s.codec.RefreshTTL().Milliseconds(),
	}
}

func (s *AuthService) publish(ctx context.Context, u model.User, kind string) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishSessionEvent(ctx, queue.SessionEvent{
		Kind:     kind,
		UserID:   u.ID,
		Username: u.Username,
		At:       s.now().Format(time.RFC3339),
	})
}
