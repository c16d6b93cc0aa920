package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shop_service/internal/domain"

	"github.com/jellydator/ttlcache/v3"
)

// OTPStore is the in-process domain.OTPStore used when no redis is configured.
// Expired codes are evicted in the background whether or not anyone asks for
// them; call Close to stop the eviction loop.
type OTPStore struct {
	cache *ttlcache.Cache[string, string]
}

var _ domain.OTPStore = (*OTPStore)(nil)

func NewOTPStore() *OTPStore {
	cache := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()
	return &OTPStore{cache: cache}
}

func (s *OTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("otp ttl must be positive, got %s: %w", ttl, domain.ErrInvalidArgument)
	}
	s.cache.Set(strings.ToLower(email), code, ttl)
	return nil
}

func (s *OTPStore) Consume(ctx context.Context, email string) (string, error) {
	item, ok := s.cache.GetAndDelete(strings.ToLower(email))
	if !ok || item.IsExpired() {
		return "", fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
	}
	return item.Value(), nil
}

func (s *OTPStore) Close() {
	s.cache.Stop()
}
