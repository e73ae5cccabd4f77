// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/models"
)

const otpLength = 6

// GenerateOTP produces a 6-digit numeric one-time code from crypto/rand.
func GenerateOTP() (string, error) {
	code := make([]byte, otpLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// IssueOTP generates a fresh code with an expiry ttl from now. Issuing a new
// OTP always supersedes any prior pending one.
func IssueOTP(ttl time.Duration) (*models.OTPInfo, error) {
	code, err := GenerateOTP()
	if err != nil {
		return nil, err
	}
	return &models.OTPInfo{
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// ValidateOTPAttempts rate-limits verification attempts to 5 per hour per
// account. A nil Redis client disables the limit.
func ValidateOTPAttempts(ctx context.Context, userID string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}

	key := "otp_attempts:" + userID
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		// Limiter outage must not block verification.
		return nil
	}

	if attempts == 1 {
		rdb.Expire(ctx, key, 1*time.Hour)
	}

	if attempts > 5 {
		return apperr.New(apperr.KindTooManyAttempts,
			"Too many verification attempts. Please request a new code")
	}

	return nil
}
