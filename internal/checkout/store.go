package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/checkout-shipping/pkg/errors"
	pkgredis "github.com/angelmondragon/checkout-shipping/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// SessionStore persists checkout sessions. Save succeeds only when the stored
// Version still equals session.Version and then increments it; otherwise it
// returns ErrSessionChanged and leaves both copies untouched.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

// ErrSessionChanged is returned by Save when another request wrote the session
// after it was loaded.
var ErrSessionChanged = pkgerrors.New(pkgerrors.CodeConflict, "checkout session was modified concurrently")

const versionField = "version"

// RedisSessionStore keeps sessions as JSON documents with a sliding TTL.
type RedisSessionStore struct {
	kv  pkgredis.KV
	ttl time.Duration
}

func NewRedisSessionStore(kv pkgredis.KV, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{kv: kv, ttl: ttl}
}

func (s *RedisSessionStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.kv.Get(ctx, s.kv.CheckoutSessionKey(id))
	if errors.Is(err, redis.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	expected := session.Version
	next := *session
	next.Version = expected + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	written, err := s.kv.SetIfVersion(ctx, s.kv.CheckoutSessionKey(session.ID), versionField, expected, string(payload), s.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
	}
	if !written {
		return ErrSessionChanged
	}
	session.Version = next.Version
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Del(ctx, s.kv.CheckoutSessionKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}
