// Package state reads and writes the .env.bit2 marker file that remembers
// what earlier bit2 invocations did in a project.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
)

// FileName is the marker file kept in the project root.
const FileName = ".env.bit2"

// Keys stored in the marker file.
const (
	KeyProjectName   = "BIT2_PROJECT_NAME"
	KeyPlatform      = "BIT2_PLATFORM"
	KeyDBName        = "BIT2_DB_NAME"
	KeyDBURL         = "BIT2_DB_URL"
	KeyGitProvider   = "BIT2_GIT_PROVIDER"
	KeyGitRemote     = "BIT2_GIT_REMOTE"
	KeyDeployURL     = "BIT2_DEPLOY_URL"
	KeySchemaApplied = "BIT2_SCHEMA_APPLIED"
	KeySeedApplied   = "BIT2_SEED_APPLIED"
	KeyUpdatedAt     = "BIT2_UPDATED_AT"
)

// SecretsFile is the dotenv file that receives database credentials. It is
// read by the generated app and kept out of version control.
const SecretsFile = ".env"

// Variables written to SecretsFile.
const (
	EnvDatabaseURL = "TURSO_DATABASE_URL"
	EnvAuthToken   = "TURSO_AUTH_TOKEN"
)

// State is the content of a project's marker file.
type State struct {
	dir    string
	values map[string]string
}

// Load reads the marker file in dir. A missing file yields an empty State.
func Load(dir string) (*State, error) {
	s := &State{dir: dir, values: map[string]string{}}

	values, err := godotenv.Read(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path(), err)
	}
	s.values = values
	return s, nil
}

// Path returns the location of the marker file.
func (s *State) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Get returns the value for key, or "".
func (s *State) Get(key string) string {
	return s.values[key]
}

// Has reports whether key is set to a non-empty value.
func (s *State) Has(key string) bool {
	return s.values[key] != ""
}

// Set stores value under key. An empty value removes the key.
func (s *State) Set(key, value string) {
	if value == "" {
		delete(s.values, key)
		return
	}
	s.values[key] = value
}

// Mark records that a step happened now.
func (s *State) Mark(key string, now time.Time) {
	s.Set(key, now.UTC().Format(time.RFC3339))
}

// Keys returns the stored keys in sorted order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Save writes the marker file, replacing it atomically.
func (s *State) Save(now time.Time) error {
	s.Mark(KeyUpdatedAt, now)
	return writeEnvFile(s.Path(), s.values)
}

// writeEnvFile writes values in dotenv format through a temp file and rename.
func writeEnvFile(path string, values map[string]string) error {
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(content + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// MergeEnvFile sets values in a dotenv file, keeping the keys already there.
// It is used for secrets that must not go into the marker file.
func MergeEnvFile(path string, values map[string]string) error {
	existing, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		existing = map[string]string{}
	}
	for k, v := range values {
		existing[k] = v
	}
	return writeEnvFile(path, existing)
}

// ReadEnvFile reads a dotenv file. A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}
