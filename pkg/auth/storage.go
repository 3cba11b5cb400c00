package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	KeyringService = "pbpup"
	KeyringUser    = "kernel-api-key"

	keyFileName = "kernel-api-key"
)

// ErrNoAPIKey is returned when no Kernel API key has been stored.
var ErrNoAPIKey = errors.New("no stored Kernel API key")

// configDir returns the directory for the file fallback. Replaced in tests.
var configDir = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pbpup"), nil
}

// SaveAPIKey stores the Kernel API key in the OS keychain, falling back to a
// private file when no keychain is available.
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key is empty")
	}
	if err := keyring.Set(KeyringService, KeyringUser, key); err != nil {
		return saveKeyToFile(key)
	}
	return nil
}

// LoadAPIKey returns the stored Kernel API key.
func LoadAPIKey() (string, error) {
	key, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil {
		return loadKeyFromFile()
	}
	return key, nil
}

// DeleteAPIKey removes the stored key from the keychain and the fallback file.
func DeleteAPIKey() error {
	err := keyring.Delete(KeyringService, KeyringUser)

	_ = deleteKeyFile()

	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete API key from keychain: %w", err)
	}
	return nil
}

func keyFilePath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, keyFileName), nil
}

func saveKeyToFile(key string) error {
	path, err := keyFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key), 0o600); err != nil {
		return fmt.Errorf("failed to write API key to file: %w", err)
	}
	return nil
}

func loadKeyFromFile() (string, error) {
	path, err := keyFilePath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoAPIKey
		}
		return "", fmt.Errorf("failed to read API key from file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

func deleteKeyFile() error {
	path, err := keyFilePath()
	if err != nil {
		return err
	}
	return os.Remove(path)
}
