// Package auth resolves bearer tokens to user IDs.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rpggio/accord/internal/repository"
)

// ErrUnauthorized indicates an unknown, expired or malformed token.
var ErrUnauthorized = errors.New("unauthorized: invalid token")

// KeyStore resolves API key hashes to user IDs.
type KeyStore interface {
	ResolveUser(ctx context.Context, keyHash string) (string, error)
}

// APIKeyResolver authenticates opaque API keys stored as SHA-256 hashes.
type APIKeyResolver struct {
	keys KeyStore
}

// NewAPIKeyResolver creates a resolver over keys.
func NewAPIKeyResolver(keys KeyStore) *APIKeyResolver {
	return &APIKeyResolver{keys: keys}
}

// ResolveUser returns the user owning token.
func (r *APIKeyResolver) ResolveUser(ctx context.Context, token string) (string, error) {
	userID, err := r.keys.ResolveUser(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("resolving api key: %w", err)
	}
	if userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// HashToken returns the stored form of an API key.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewAPIKey returns a random API key.
func NewAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return "acc_" + hex.EncodeToString(buf), nil
}
