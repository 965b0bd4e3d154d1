package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/redis"
)

// Session is one shopper's in-flight checkout: the cart partition fixed
// at entry, the mutable state, and the totals derived from both. State
// and Totals are always written together, so a reader never observes a
// coupon change without its recomputed totals.
type Session struct {
	UserID    uuid.UUID      `json:"userId"`
	Drafts    []SellerDraft  `json:"drafts"`
	Currency  enums.Currency `json:"currency"`
	State     State          `json:"state"`
	Totals    Totals         `json:"totals"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ErrSessionNotFound reports a missing or expired checkout session.
var ErrSessionNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")

// SessionStore persists checkout sessions keyed by user id.
type SessionStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a session store over the shared Redis
// client. Sessions expire after ttl; every save refreshes the TTL.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, ttl: ttl}
}

func (s *redisSessionStore) Load(ctx context.Context, userID uuid.UUID) (*Session, error) {
	raw, err := s.client.Get(ctx, s.client.CheckoutSessionKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "session with user id required")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	key := s.client.CheckoutSessionKey(session.UserID.String())
	if err := s.client.Set(ctx, key, raw, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
	}
	return nil
}

func (s *redisSessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CheckoutSessionKey(userID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]byte
}

// NewMemorySessionStore builds an in-process store with the same
// JSON round-trip behavior as the Redis store. Used in tests and
// single-node development.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[uuid.UUID][]byte)}
}

func (s *memorySessionStore) Load(_ context.Context, userID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	raw, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (s *memorySessionStore) Save(_ context.Context, session *Session) error {
	if session == nil || session.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "session with user id required")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	s.mu.Lock()
	s.sessions[session.UserID] = raw
	s.mu.Unlock()
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}
