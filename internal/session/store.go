package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FilePerms restricts the session file to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the session directory.
const DirPerms = 0o700

// Store persists the session as a JSON file. All mutation goes through
// the store; callers never hold a private writable copy. Writes are
// atomic (temp file + rename) so a concurrent Load never observes a
// torn record.
type Store struct {
	path   string
	logger *slog.Logger

	// navigate is invoked with RouteLogin after every Clear. The CLI
	// wires this to a "run 'gallery-cli login'" hint; tests inject a
	// recorder. Centralizing the redirect here keeps other components
	// from racing to trigger it.
	navigate func(route string)

	mu sync.Mutex
}

// NewStore creates a session store backed by the file at path.
// navigate may be nil, in which case Clear only removes the file.
func NewStore(path string, navigate func(route string), logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{path: path, navigate: navigate, logger: logger}
}

// Load reads the persisted session. A missing or unreadable file
// degrades to the zero Session — the user is simply logged out, never
// an error the UI has to handle.
func (s *Store) Load() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

func (s *Store) loadLocked() Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("session file unreadable, treating as logged out",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}

		return Session{}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("session file corrupt, treating as logged out",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)

		return Session{}
	}

	return sess
}

// Save persists the full session atomically. The pairing invariant is
// checked up front so an invalid record never reaches disk.
func (s *Store) Save(sess Session) error {
	if err := sess.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(sess)
}

func (s *Store) saveLocked(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}

	dir := filepath.Dir(s.path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("session: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("session: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("session: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: writing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: closing: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("session: renaming: %w", err)
	}

	success = true

	return nil
}

// SetAccessToken overwrites only the access token, leaving the refresh
// token, role, and user id untouched. Used by the gateway after a
// successful renewal.
func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.loadLocked()
	if !sess.LoggedIn() {
		return errors.New("session: no session to renew")
	}

	sess.AccessToken = token

	return s.saveLocked(sess)
}

// Clear removes the persisted session and invokes the navigate hook
// with the login route. Idempotent: clearing an already-empty store is
// a no-op apart from the navigation hint.
func (s *Store) Clear() {
	s.mu.Lock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove session file",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Unlock()

	s.logger.Info("session cleared", slog.String("path", s.path))

	if s.navigate != nil {
		s.navigate(RouteLogin)
	}
}
