package earthdata

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials holds an Earthdata Login username and password.
type Credentials struct {
	Username string
	Password string
}

// ErrNoCredentials indicates that no stored credential file exists.
var ErrNoCredentials = errors.New("no stored credentials, run login first")

// storedCredentials is the on-disk credential format. The password is
// base64-obscured to keep it out of casual greps, not encrypted.
type storedCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CredentialStore persists Earthdata credentials in a JSON file under the
// user's configuration directory.
type CredentialStore struct {
	path string
}

// NewCredentialStore creates a store at the default path for the current
// user.
func NewCredentialStore() (*CredentialStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	return &CredentialStore{path: filepath.Join(dir, "temperature-forecast", "credentials.json")}, nil
}

// NewCredentialStoreAt creates a store backed by an explicit file path.
func NewCredentialStoreAt(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string {
	return s.path
}

// Save writes the credentials, creating parent directories as needed. The
// file is restricted to the owning user.
func (s *CredentialStore) Save(creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.New("username and password are required")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credential dir: %w", err)
	}

	data, err := json.MarshalIndent(storedCredentials{
		Username: creds.Username,
		Password: base64.StdEncoding.EncodeToString([]byte(creds.Password)),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}

// Load reads stored credentials, returning ErrNoCredentials when the file
// does not exist.
func (s *CredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNoCredentials
		}
		return Credentials{}, fmt.Errorf("reading credential file: %w", err)
	}

	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		return Credentials{}, fmt.Errorf("parsing credential file: %w", err)
	}

	password, err := base64.StdEncoding.DecodeString(stored.Password)
	if err != nil {
		return Credentials{}, fmt.Errorf("decoding stored password: %w", err)
	}

	return Credentials{Username: stored.Username, Password: string(password)}, nil
}

// Delete removes the credential file. Deleting a missing file is not an
// error.
func (s *CredentialStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}
