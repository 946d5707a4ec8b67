package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore records revoked jti values as keys with a TTL matching
// the token lifetime, so the set never grows without bound.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

func (s *RedisStore) Revoke(ctx context.Context, jti string) error {
	return s.client.Set(ctx, revocationKey(jti), "1", s.ttl).Err()
}

// IsRevoked satisfies token.RevocationChecker. A Redis error is
// treated as "not revoked" rather than failing the whole verify path;
// revocation is a defense-in-depth check layered on top of signature
// and expiry validation, not the only line of defense.
func (s *RedisStore) IsRevoked(jti string) bool {
	n, err := s.client.Exists(context.Background(), revocationKey(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (s *RedisStore) Close() error { return s.client.Close() }

func revocationKey(jti string) string { return "revoked-jwt:" + jti }
