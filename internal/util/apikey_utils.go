package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/makkenzo/alttext-service-api/internal/domain/apikey"
)

func generateRandomString(length int) (string, error) {
	// Over-allocate: '-' and '_' are dropped below.
	b := make([]byte, length*2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	str := base64.RawURLEncoding.EncodeToString(b)
	str = strings.ReplaceAll(str, "-", "")
	str = strings.ReplaceAll(str, "_", "")
	if len(str) < length {
		return "", fmt.Errorf("random string too short: got %d, want %d", len(str), length)
	}

	return str[:length], nil
}

// GenerateAPIKey returns a new raw key, its display prefix and the hash that
// is persisted. The raw key is never stored.
func GenerateAPIKey() (fullKey string, prefix string, keyHash string, err error) {
	prefix, err = generateRandomString(apikey.APIKeyPrefixLength)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate prefix: %w", err)
	}

	secret, err := generateRandomString(apikey.APIKeySecretLength)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate secret: %w", err)
	}

	fullKey = fmt.Sprintf(apikey.APIKeyFormat, prefix, secret)
	return fullKey, prefix, HashAPIKey(fullKey), nil
}

// HashAPIKey is the one-way lookup hash for a raw key (hex SHA-256).
func HashAPIKey(fullKey string) string {
	sum := sha256.Sum256([]byte(fullKey))
	return hex.EncodeToString(sum[:])
}

// HashLocator condenses long content locators, such as data URIs, into a
// stable cache key component.
func HashLocator(locator string) string {
	sum := sha256.Sum256([]byte(locator))
	return "sha256:" + hex.EncodeToString(sum[:])
}
