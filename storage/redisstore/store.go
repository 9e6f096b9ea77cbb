// Package redisstore keeps the auth session in Redis, for hosts that run the
// auth client on behalf of several users or across several processes.
package redisstore

import (
	"context"
	"time"

	errs "github.com/commasconnect/comma-auth/internal/errors"
	"github.com/commasconnect/comma-auth/storage"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 2 * time.Second

var _ storage.Repo = (*Store)(nil)

// Store is a storage.Repo on top of a Redis client. Keys are namespaced as
// "<prefix>:<key>".
type Store struct {
	client  redis.Cmdable
	prefix  string
	timeout time.Duration
}

type Option func(*Store)

// WithTimeout bounds every Redis round-trip.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(client redis.Cmdable, prefix string, options ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] client is required")
	}
	s := &Store{
		client:  client,
		prefix:  prefix,
		timeout: defaultTimeout,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// ForUser returns a store scoped to one user context of a multi-user host.
func (s *Store) ForUser(userKey string) *Store {
	return &Store{
		client:  s.client,
		prefix:  s.key(userKey),
		timeout: s.timeout,
	}
}

func (s *Store) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(errs.ErrStoreUnavailable, "[redisstore.Get] %s: %v", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(errs.ErrStoreUnavailable, "[redisstore.Set] %s: %v", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrapf(errs.ErrStoreUnavailable, "[redisstore.Delete] %s: %v", key, err)
	}
	return nil
}

func (s *Store) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}
