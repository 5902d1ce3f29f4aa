// Package file keeps onboarding sessions as one JSON document per session
// in a local directory, so a chat can be resumed after the process exits.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

// DefaultDir is where sessions are kept when no directory is configured.
var DefaultDir = filepath.Join(".onboard", "sessions")

const (
	ext       = ".json"
	tmpPrefix = "tmp-"
)

// Store is a ports.StateStore writing <BasePath>/<session>.json.
type Store struct {
	BasePath string
}

// New returns a Store rooted at basePath, or at DefaultDir when empty.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("file store: empty session id")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("file store: session id %q is not a plain file name", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+ext), nil
}

// Save writes the session next to its final name, fsyncs it and renames it
// into place. Readers never see a half-written transcript.
func (s *Store) Save(_ context.Context, sessionID string, state *domain.State) error {
	dest, err := s.path(sessionID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	// Same directory as dest: rename is only atomic within a filesystem.
	tmp, err := os.CreateTemp(s.BasePath, tmpPrefix+sessionID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	// Windows refuses to rename an open file.
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads a session, or returns domain.ErrSessionNotFound.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.State, error) {
	src, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete removes a session file. A missing file is not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	target, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the saved session IDs in lexical order, ignoring temporary
// files and anything that is not a session document.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ids := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	slices.Sort(ids)
	return ids, nil
}
