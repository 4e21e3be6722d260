package signin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"finitefield.org/care-portal/internal/portal/login"
)

// DirectoryEntry is one account in a local directory file.
type DirectoryEntry struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

type directoryFile struct {
	Users []DirectoryEntry `yaml:"users"`
}

// Directory authenticates against a fixed set of accounts with bcrypt password
// hashes. It stands in for the real backend during local development.
type Directory struct {
	entries map[string]DirectoryEntry
}

// NewDirectory indexes entries by lower-cased email.
func NewDirectory(entries []DirectoryEntry) (*Directory, error) {
	index := make(map[string]DirectoryEntry, len(entries))
	for i, entry := range entries {
		key := normalizeEmail(entry.Email)
		if key == "" {
			return nil, fmt.Errorf("signin: directory entry %d has no email", i)
		}
		if _, err := bcrypt.Cost([]byte(entry.PasswordHash)); err != nil {
			return nil, fmt.Errorf("signin: directory entry %q: invalid password hash: %w", entry.Email, err)
		}
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("signin: directory entry %q is duplicated", entry.Email)
		}
		index[key] = entry
	}
	return &Directory{entries: index}, nil
}

// LoadDirectory reads a YAML directory of the form:
//
//	users:
//	  - email: admin@example.com
//	    password_hash: $2a$10$...
//	    role: ADMIN
func LoadDirectory(r io.Reader) (*Directory, error) {
	var file directoryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("signin: decode directory: %w", err)
	}
	return NewDirectory(file.Users)
}

// LoadDirectoryFile opens path and reads it with LoadDirectory.
func LoadDirectoryFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("signin: open directory: %w", err)
	}
	defer f.Close()
	return LoadDirectory(f)
}

// HashPassword produces a bcrypt hash for directory files.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("signin: hash password: %w", err)
	}
	return string(hash), nil
}

// Len reports how many accounts the directory holds.
func (d *Directory) Len() int {
	return len(d.entries)
}

// SignIn implements login.Authenticator. Unknown accounts and wrong passwords
// both answer with an error response so callers cannot tell them apart.
func (d *Directory) SignIn(ctx context.Context, creds login.Credentials) (login.Response, error) {
	if err := ctx.Err(); err != nil {
		return login.Response{}, err
	}

	entry, ok := d.entries[normalizeEmail(creds.Email)]
	if !ok {
		return login.Response{Error: MessageInvalidCredentials}, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(creds.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return login.Response{Error: MessageInvalidCredentials}, nil
		}
		return login.Response{}, fmt.Errorf("signin: compare password: %w", err)
	}
	return login.Response{Role: entry.Role}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
