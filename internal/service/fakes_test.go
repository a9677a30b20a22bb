package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/web-storefront/internal/config"
	"github.com/iliyamo/web-storefront/internal/model"
	"github.com/iliyamo/web-storefront/internal/queue"
	"github.com/iliyamo/web-storefront/internal/repository"
	"github.com/iliyamo/web-storefront/internal/token"
	"github.com/iliyamo/web-storefront/internal/utils"
)

const (
	testAccessSecret  = "access-secret-at-least-32-characters!!"
	testRefreshSecret = "refresh-secret-at-least-32-characters!"
)

func newTestCodec() *token.Codec {
	return token.NewCodec(config.Config{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
}

// memTokenStore is an in-memory RefreshTokenStore. All mutations are
// guarded so tests can run concurrent flows against it.
type memTokenStore struct {
	mu   sync.Mutex
	recs map[string]model.RefreshTokenRecord
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{recs: map[string]model.RefreshTokenRecord{}}
}

func (s *memTokenStore) Insert(_ context.Context, rec model.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return nil
}

func (s *memTokenStore) ListUnrevokedByUser(_ context.Context, userID string) ([]model.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RefreshTokenRecord
	for _, rec := range s.recs {
		if rec.UserID == userID && !rec.Revoked {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memTokenStore) RevokeByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[id]; ok {
		rec.Revoked = true
		s.recs[id] = rec
	}
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.recs {
		if rec.UserID == userID {
			rec.Revoked = true
			s.recs[id] = rec
		}
	}
	return nil
}

func (s *memTokenStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.recs {
		if rec.ExpiresAt.Before(cutoff) {
			delete(s.recs, id)
			n++
		}
	}
	return n, nil
}

func (s *memTokenStore) get(id string) (model.RefreshTokenRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	return rec, ok
}

func (s *memTokenStore) activeCount(userID string) int {
	recs, _ := s.ListUnrevokedByUser(context.Background(), userID)
	return len(recs)
}

// memUserStore is an in-memory UserStore keyed by username.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // by username
}

func newMemUserStore(users ...model.User) *memUserStore {
	s := &memUserStore{users: map[string]model.User{}}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

// testUser builds an active user with a bcrypt-hashed password at MinCost.
func testUser(id, username, email, password, role string) model.User {
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Provider:     "local",
		IsActive:     true,
	}
}

func (s *memUserStore) Create(_ context.Context, username, email, password, role string, cost int) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return model.User{}, repository.ErrUsernameExists
	}
	for _, u := range s.users {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{ID: "id-" + username, Username: username, Email: email, PasswordHash: hash, Role: role, Provider: "local", IsActive: true}
	s.users[username] = u
	return u, nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByUsernameOrEmail(ctx context.Context, identifier string) (model.User, error) {
	if u, err := s.GetByUsername(ctx, identifier); err == nil {
		return u, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == identifier {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

// memKV is an in-memory KV with TTL semantics for blacklist tests.
type memKV struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> expiry
	failing bool                 // simulate an unavailable cache
}

func newMemKV() *memKV { return &memKV{entries: map[string]time.Time{}} }

var errKVUnavailable = errors.New("kv unavailable")

func (k *memKV) Set(_ context.Context, key, _ string, ttl time.Duration) error {
	if k.failing {
		return errKVUnavailable
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries[key] = time.Now().Add(ttl)
	return nil
}

func (k *memKV) Exists(_ context.Context, key string) (bool, error) {
	if k.failing {
		return false, errKVUnavailable
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	exp, ok := k.entries[key]
	if !ok || time.Now().After(exp) {
		delete(k.entries, key)
		return false, nil
	}
	return true, nil
}

func (k *memKV) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// recordingPublisher captures published session events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.SessionEvent
}

func (p *recordingPublisher) PublishSessionEvent(_ context.Context, ev queue.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

// newTestAuth wires an AuthService over in-memory stores.
func newTestAuth(users ...model.User) (*AuthService, *memTokenStore, *memKV, *recordingPublisher) {
	codec := newTestCodec()
	store := newMemTokenStore()
	kv := newMemKV()
	pub := &recordingPublisher{}
	ledger := NewLedger(store, codec, bcrypt.MinCost)
	svc := NewAuthService(codec, newMemUserStore(users...), ledger, NewBlacklist(kv), pub, bcrypt.MinCost)
	return svc, store, kv, pub
}
