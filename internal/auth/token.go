package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const apiTokenPrefix = "opc_"

// Format: opc_<uuid>_<64 hex chars>
const apiTokenLength = len(apiTokenPrefix) + 36 + 1 + 64

// GenerateAPIToken returns a new API token and the hash to store for it.
func GenerateAPIToken() (token, hash string, err error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("failed to generate secret: %w", err)
	}

	token = fmt.Sprintf("%s%s_%s", apiTokenPrefix, uuid.NewString(), hex.EncodeToString(secret))
	return token, HashToken(token), nil
}

// HashToken is the storage hash for API and refresh tokens.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func IsAPIToken(token string) bool {
	return len(token) == apiTokenLength && strings.HasPrefix(token, apiTokenPrefix)
}
