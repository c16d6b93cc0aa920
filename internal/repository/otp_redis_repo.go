package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop_service/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const otpKeyPrefix = "otp:"

type redisOTPStore struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisOTPStore(client *redis.Client, logger *logrus.Logger) domain.OTPStore {
	return &redisOTPStore{
		client: client,
		log:    logger,
	}
}

func otpKey(email string) string {
	return otpKeyPrefix + strings.ToLower(email)
}

func (s *redisOTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKey(email), code, ttl).Err(); err != nil {
		s.log.Errorf("Repository: Failed to store OTP for %s: %v", email, err)
		return fmt.Errorf("could not store otp: %w", err)
	}
	return nil
}

func (s *redisOTPStore) Consume(ctx context.Context, email string) (string, error) {
	code, err := s.client.GetDel(ctx, otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
		}
		s.log.Errorf("Repository: Failed to read OTP for %s: %v", email, err)
		return "", fmt.Errorf("could not read otp: %w", err)
	}
	return code, nil
}
