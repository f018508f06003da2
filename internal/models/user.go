package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a planner account. The raw access token is never persisted; only
// its SHA-256 hex hash and an 8-character display prefix are stored.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	TokenHash   string    `json:"-"`
	TokenPrefix string    `json:"token_prefix,omitempty"`
	Newsletter  bool      `json:"newsletter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewUser creates a User holding the hash of rawToken.
func NewUser(email, name, rawToken string) *User {
	now := time.Now().UTC()
	prefix := rawToken
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return &User{
		ID:          NewID(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Name:        strings.TrimSpace(name),
		TokenHash:   HashToken(rawToken),
		TokenPrefix: prefix,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GenerateToken produces a new random access token in the format tp_<44 url-safe base64 chars>.
func GenerateToken() (string, error) {
	b := make([]byte, 33) // 33 bytes → 44 base64url chars
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return "tp_" + base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken computes the SHA-256 hex digest of a raw access token.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// NewID generates a new UUID v4 for users, trips and messages.
func NewID() string {
	return uuid.New().String()
}

// ValidateEmail reports whether email is a bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return nil
}
