// Package secrets reads credentials from the OS keyring.
package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no credential is stored under the key.
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be used.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Keyring stores one secret per (service, user) pair.
type Keyring struct {
	Service string
	User    string
}

// Get returns the stored secret.
func (k Keyring) Get() (string, error) {
	secret, err := keyring.Get(k.Service, k.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// Set stores secret, replacing any previous value.
func (k Keyring) Set(secret string) error {
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(k.Service, k.User, secret); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// Delete removes the stored secret.
func (k Keyring) Delete() error {
	if err := keyring.Delete(k.Service, k.User); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// ResolveDSN returns configured when set, otherwise the keyring secret.
func (k Keyring) ResolveDSN(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dsn, err := k.Get()
	if err != nil {
		return "", fmt.Errorf("no database DSN configured: %w", err)
	}
	return dsn, nil
}
