package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitlit/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// user scopes keyring entries per backend so PostgreSQL and Redis
// credentials can coexist.
func user(backend string) string {
	return constants.DefaultKeyringUser + "-" + strings.ToLower(backend)
}

// GetConnectionString retrieves the backend's connection string from the OS keyring.
// Returns ErrNotFound if no credentials are stored.
func GetConnectionString(backend string) (string, error) {
	connStr, err := keyring.Get(constants.AppName, user(backend))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

// SetConnectionString stores the backend's connection string in the OS keyring.
func SetConnectionString(backend, connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, user(backend), connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// DeleteConnectionString removes the backend's connection string from the OS keyring.
func DeleteConnectionString(backend string) error {
	if err := keyring.Delete(constants.AppName, user(backend)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	// ErrNotFound means the keyring answered
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// ResolveConnectionString looks up credentials for backend: the
// environment variable wins over the keyring.
func ResolveConnectionString(backend string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(constants.ConnectionEnvVar)); v != "" {
		return v, nil
	}
	return GetConnectionString(backend)
}

// MaskPassword hides the password of a URL or DSN style connection string.
func MaskPassword(connStr string) string {
	if idx := strings.Index(connStr, "://"); idx != -1 {
		remaining := connStr[idx+3:]
		// The last @ separates user info from host
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
			}
		}
		return connStr
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(strings.ToLower(part), "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
