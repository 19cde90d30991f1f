package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned when no token has been stored for an account.
var ErrNoCredentials = errors.New("no stored credentials for account")

// CredentialStore holds OAuth tokens keyed by account. Implementations must
// treat the token as an opaque blob; production deployments can back this
// with a secret manager instead of the local file store.
type CredentialStore interface {
	Get(account string) (*oauth2.Token, error)
	Set(account string, token *oauth2.Token) error
	Clear(account string) error
}

// FileCredentialStore keeps one token-<account>.json file per account in a
// single directory, written with owner-only permissions.
type FileCredentialStore struct {
	dir string
}

// NewFileCredentialStore creates a store rooted at dir. An empty dir selects
// the XDG data directory for the application.
func NewFileCredentialStore(dir string) *FileCredentialStore {
	if dir == "" {
		dir = filepath.Join(xdg.DataHome, "famsync")
	}
	return &FileCredentialStore{dir: dir}
}

func (s *FileCredentialStore) tokenPath(account string) string {
	return filepath.Join(s.dir, fmt.Sprintf("token-%s.json", account))
}

// Get loads the token for an account, or ErrNoCredentials if none is stored.
func (s *FileCredentialStore) Get(account string) (*oauth2.Token, error) {
	f, err := os.Open(s.tokenPath(account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// Set persists the token for an account, creating the directory if needed.
func (s *FileCredentialStore) Set(account string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(s.tokenPath(account), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// Clear removes the stored token for an account. A missing file is not an
// error; the account simply ends up unauthenticated either way.
func (s *FileCredentialStore) Clear(account string) error {
	if err := os.Remove(s.tokenPath(account)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
