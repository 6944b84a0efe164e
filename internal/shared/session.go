package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/desertthunder/butter/internal/models"
)

// DefaultSessionPath returns ~/.butter/session.toml, falling back to the working directory when the home
// directory cannot be determined.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".butter", "session.toml")
	}
	return filepath.Join(home, ".butter", "session.toml")
}

// SessionFile returns the configured session file path or the default.
func (c ClientConfig) SessionFile() string {
	if c.SessionPath != "" {
		return c.SessionPath
	}
	return DefaultSessionPath()
}

// LoadSession reads a session from path.
//
// A missing file yields [ErrNotAuthenticated].
func LoadSession(path string) (models.Session, error) {
	var sess models.Session
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return sess, fmt.Errorf("%w: no session at %s", ErrNotAuthenticated, path)
	} else if err != nil {
		return sess, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := toml.Unmarshal(data, &sess); err != nil {
		return sess, fmt.Errorf("failed to parse session file: %w", err)
	}

	if !sess.Valid() {
		return sess, fmt.Errorf("%w: session at %s has no access token", ErrNotAuthenticated, path)
	}
	return sess, nil
}

// SaveSession writes sess to path with owner-only permissions, creating parent directories.
func SaveSession(path string, sess models.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("%w: session has no access token", ErrInvalidInput)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(sess); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}

// RemoveSession deletes the session file. Removing a missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
