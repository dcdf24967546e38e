// Package cli holds the persistent settings and output helpers behind
// unihub-cli.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/edvin/unihub/internal/client"
)

const (
	stateFile = "cli.json"

	// DefaultAPIURL is used when neither a flag, UNIHUB_API_URL nor the
	// saved state names a server.
	DefaultAPIURL = "http://127.0.0.1:4000"
)

// State is what the CLI remembers between runs besides the token.
type State struct {
	APIURL string `json:"api_url,omitempty"`
}

// Store reads and writes State under a config directory.
type Store struct {
	dir string
}

// NewStore keeps state in dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultStore keeps state in the shared UniHub config directory.
func DefaultStore() (*Store, error) {
	dir, err := client.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

func (s *Store) Dir() string { return s.dir }

// Load returns the saved state. A missing file yields an empty State.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, stateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse cli state: %w", err)
	}
	return &st, nil
}

// Save writes st, creating the config directory if needed.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cli state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, stateFile), data, 0600); err != nil {
		return fmt.Errorf("write cli state: %w", err)
	}
	return nil
}

// Tokens is the session token store that sits next to the state file.
func (s *Store) Tokens() *client.FileTokenStore {
	return client.NewFileTokenStore(filepath.Join(s.dir, "token"))
}

// ResolveAPIURL picks the server address: an explicit flag, then
// UNIHUB_API_URL, then the saved state, then DefaultAPIURL.
func ResolveAPIURL(flagValue string, st *State) string {
	for _, candidate := range []string{flagValue, os.Getenv("UNIHUB_API_URL"), stateURL(st)} {
		if v := strings.TrimSpace(candidate); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return DefaultAPIURL
}

func stateURL(st *State) string {
	if st == nil {
		return ""
	}
	return st.APIURL
}
