package generatorKey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// generateRandomSeed generates a cryptographically secure random seed
func generateRandomSeed(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random seed: %w", err)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b), nil
}

// generateKey hashes a seed into a URL and header safe token
func generateKey(seed string) string {
	hash := sha256.New()
	hash.Write([]byte(seed))
	encodedString := base64.StdEncoding.EncodeToString(hash.Sum(nil))

	// Replace characters that are not suitable for keys
	return strings.NewReplacer("/", "", "+", "", "=", "").Replace(encodedString)
}

// CreateKey generates a random key split into dash separated segments
func CreateKey(seedLength, keySegmentLength int) (string, error) {
	seed, err := generateRandomSeed(seedLength)
	if err != nil {
		return "", err
	}
	key := generateKey(seed)
	if keySegmentLength <= 0 {
		return key, nil
	}

	var formattedKey strings.Builder
	for i := 0; i < len(key); i += keySegmentLength {
		if i > 0 {
			formattedKey.WriteString("-")
		}
		end := i + keySegmentLength
		if end > len(key) {
			end = len(key)
		}
		formattedKey.WriteString(key[i:end])
	}
	return formattedKey.String(), nil
}

// NewIdempotencyKey returns a key identifying one logical remote write across retries
func NewIdempotencyKey() (string, error) {
	return CreateKey(32, 0)
}
