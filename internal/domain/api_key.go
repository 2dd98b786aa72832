package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Environment constants
const (
	EnvTest = "test"
	EnvLive = "live"
)

const (
	apiKeyLength        = 32
	webhookSecretLength = 32
	base62Chars         = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var validEnvironments = map[string]bool{
	EnvTest: true,
	EnvLive: true,
}

// APIKey represents an API key used to authenticate a tenant
type APIKey struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Name        string     `json:"name"`
	KeyHash     string     `json:"-"`
	KeyPrefix   string     `json:"key_prefix"`
	Environment string     `json:"environment"`
	IsActive    bool       `json:"is_active"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GenerateAPIKey creates a new API key, its SHA-256 hash and display prefix.
// Format: sk_<env>_<random32>, e.g. sk_live_A1b2C3...
func GenerateAPIKey(env string) (string, string, string, error) {
	if !validEnvironments[env] {
		return "", "", "", errors.New("invalid environment: must be 'test' or 'live'")
	}

	randomPart, err := generateSecureRandomString(apiKeyLength)
	if err != nil {
		return "", "", "", err
	}

	plainKey := "sk_" + env + "_" + randomPart

	hash := HashAPIKey(plainKey)

	// Prefix shown in dashboards: sk_live_A1b2C3
	keyPrefix := plainKey[:14]

	return plainKey, hash, keyPrefix, nil
}

// GenerateWebhookSecret creates a signing secret for a webhook subscription.
// Format: whsec_<random32>
func GenerateWebhookSecret() (string, error) {
	randomPart, err := generateSecureRandomString(webhookSecretLength)
	if err != nil {
		return "", err
	}
	return "whsec_" + randomPart, nil
}

// HashAPIKey returns the hex SHA-256 hash of an API key
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// generateSecureRandomString builds a base62 string using crypto/rand
func generateSecureRandomString(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	max := big.NewInt(int64(len(base62Chars)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base62Chars[n.Int64()])
	}

	return sb.String(), nil
}
