package earthdata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCredentialStore_SaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewCredentialStoreAt(path)

	creds := Credentials{Username: "someone", Password: "s3cret!"}
	if err := store.Save(creds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != creds {
		t.Errorf("Load() = %+v, want %+v", loaded, creds)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() after delete error = %v, want ErrNoCredentials", err)
	}

	// Deleting again is not an error.
	if err := store.Delete(); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestCredentialStore_PasswordNotStoredPlainly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewCredentialStoreAt(path)

	if err := store.Save(Credentials{Username: "someone", Password: "hunter2"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading credential file: %v", err)
	}
	if strings.Contains(string(raw), "hunter2") {
		t.Error("password must not appear verbatim in the credential file")
	}

	var stored map[string]string
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("credential file is not JSON: %v", err)
	}
	if stored["username"] != "someone" {
		t.Errorf("username = %q, want someone", stored["username"])
	}
}

func TestCredentialStore_SaveValidation(t *testing.T) {
	store := NewCredentialStoreAt(filepath.Join(t.TempDir(), "credentials.json"))

	if err := store.Save(Credentials{Username: "", Password: "x"}); err == nil {
		t.Error("missing username should be rejected")
	}
	if err := store.Save(Credentials{Username: "x", Password: ""}); err == nil {
		t.Error("missing password should be rejected")
	}
}

func TestLookupLocation(t *testing.T) {
	coords, err := LookupLocation("Madrid")
	if err != nil {
		t.Fatalf("LookupLocation() error = %v", err)
	}
	if coords.Latitude != 40.4168 || coords.Longitude != -3.7038 {
		t.Errorf("coords = %+v, want madrid", coords)
	}

	if _, err := LookupLocation("  ZARAGOZA "); err != nil {
		t.Errorf("lookup should be case and whitespace insensitive, got %v", err)
	}

	_, err = LookupLocation("atlantis")
	var unknown *UnknownLocationError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want UnknownLocationError", err)
	}
	if unknown.Name != "atlantis" {
		t.Errorf("Name = %q, want atlantis", unknown.Name)
	}
}

func TestLocationNames_Sorted(t *testing.T) {
	names := LocationNames()
	if len(names) != 6 {
		t.Fatalf("got %d names, want 6", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
