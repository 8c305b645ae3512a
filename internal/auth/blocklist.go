// File: internal/auth/blocklist.go
package auth

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenBlocklistService records revoked token ids (jti) until the token would have expired anyway.
type TokenBlocklistService interface {
	AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlocklisted(ctx context.Context, jti string) (bool, error)
}

// InMemoryBlocklistService keeps revoked ids in a process-local cache. Revocations
// do not survive a restart, which matches the lifetime of dashboard sessions.
type InMemoryBlocklistService struct {
	cache *cache.Cache
	now   func() time.Time
}

// NewInMemoryBlocklistService creates a blocklist whose janitor runs every cleanupInterval.
func NewInMemoryBlocklistService(cleanupInterval time.Duration) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
		now:   time.Now,
	}
}

// AddToBlocklist blocks jti until expiresAt. Already expired tokens are ignored.
func (s *InMemoryBlocklistService) AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if jti == "" || ttl <= 0 {
		return nil
	}
	s.cache.Set(jti, struct{}{}, ttl)
	return nil
}

// IsBlocklisted reports whether jti has been revoked.
func (s *InMemoryBlocklistService) IsBlocklisted(ctx context.Context, jti string) (bool, error) {
	_, found := s.cache.Get(jti)
	return found, nil
}
