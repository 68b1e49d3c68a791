package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acadflow/approval-api/internal/models"
)

// ErrOTPNotFound marks a missing or expired login code.
var ErrOTPNotFound = errors.New("otp not found")

// OTPRepository stores bcrypt-hashed login codes in Redis. A code lives
// under one (role, email) key with a TTL; saving overwrites any previous
// code for the pair.
type OTPRepository struct {
	client *redis.Client
}

// NewOTPRepository constructs the repository.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

func codeKey(email string, role models.UserRole) string {
	return fmt.Sprintf("otp:%s:%s", role, email)
}

func cooldownKey(email string, role models.UserRole) string {
	return fmt.Sprintf("otp_cooldown:%s:%s", role, email)
}

// SaveCode stores the hashed code with the given TTL.
func (r *OTPRepository) SaveCode(ctx context.Context, email string, role models.UserRole, hash string, ttl time.Duration) error {
	if err := r.client.Set(ctx, codeKey(email, role), hash, ttl).Err(); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

// FetchCode returns the stored hash or ErrOTPNotFound.
func (r *OTPRepository) FetchCode(ctx context.Context, email string, role models.UserRole) (string, error) {
	hash, err := r.client.Get(ctx, codeKey(email, role)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOTPNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetch otp: %w", err)
	}
	return hash, nil
}

// DeleteCode removes the code so it cannot be replayed.
func (r *OTPRepository) DeleteCode(ctx context.Context, email string, role models.UserRole) error {
	if err := r.client.Del(ctx, codeKey(email, role)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// AcquireCooldown reports whether a new code may be issued for the pair.
// The first caller within the window wins via SET NX.
func (r *OTPRepository) AcquireCooldown(ctx context.Context, email string, role models.UserRole, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, cooldownKey(email, role), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire otp cooldown: %w", err)
	}
	return ok, nil
}
