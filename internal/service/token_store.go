package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore 记录已注销令牌的 jti，保留到令牌本身过期
type TokenStore struct {
	rdb *redis.Client

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{
		rdb:     rdb,
		revoked: make(map[string]time.Time),
	}
}

func revokedKey(jti string) string {
	return "exam:revoked:" + jti
}

func (s *TokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}

	if s.rdb != nil {
		return s.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, k)
		}
	}
	s.revoked[jti] = expiresAt
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	if s.rdb != nil {
		n, err := s.rdb.Exists(ctx, revokedKey(jti)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[jti]
	return ok && time.Now().Before(exp), nil
}
