// Package keyring stores connection secrets outside the configuration file.
// Config values of the form "keyring:<account>" are replaced by the secret
// stored for that account before the connection is loaded.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

const (
	BackendAuto   = "auto"
	BackendSystem = "system"
	BackendFile   = "file"

	// DefaultService namespaces hopper entries in the keyring
	DefaultService = "hopper"

	// Prefix marks a config value as a keyring reference
	Prefix = "keyring:"

	// MasterKeyEnv holds the master key of the file backend
	MasterKeyEnv = "HOPPER_KEYRING_MASTER_KEY"
	// PathEnv overrides the default file backend location
	PathEnv = "HOPPER_KEYRING_PATH"
)

// ErrNotFound is returned when no secret is stored for an account.
var ErrNotFound = errors.New("secret not found in keyring")

// Store reads and writes secrets.
type Store interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
}

// Open returns the store for backend. The auto backend probes the system
// keyring and falls back to the file at path when it is unavailable.
func Open(backend, path, masterKey string) (Store, error) {
	switch backend {
	case BackendSystem:
		return systemStore{}, nil
	case BackendFile:
		return NewFileStore(path, masterKey), nil
	case BackendAuto, "":
		if systemAvailable(5 * time.Second) {
			return systemStore{}, nil
		}
		return NewFileStore(path, masterKey), nil
	default:
		return nil, fmt.Errorf("unknown keyring backend %q", backend)
	}
}

// systemAvailable writes and removes a probe entry. Some desktop keyrings
// block on an unlock prompt, hence the timeout.
func systemAvailable(timeout time.Duration) bool {
	done := make(chan error, 1)
	go func() {
		err := gokeyring.Set(DefaultService+"-probe", "probe", "probe")
		if err == nil {
			_ = gokeyring.Delete(DefaultService+"-probe", "probe")
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err == nil
	case <-time.After(timeout):
		return false
	}
}

type systemStore struct{}

func (systemStore) Get(service, account string) (string, error) {
	secret, err := gokeyring.Get(service, account)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, service, account)
	}
	return secret, err
}

func (systemStore) Set(service, account, secret string) error {
	return gokeyring.Set(service, account, secret)
}

func (systemStore) Delete(service, account string) error {
	err := gokeyring.Delete(service, account)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}

// IsReference reports whether v is a keyring reference.
func IsReference(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, Prefix) && len(s) > len(Prefix)
}

// HasReferences reports whether any value of cfg is a keyring reference.
func HasReferences(cfg adapter.Config) bool {
	for _, v := range cfg {
		if IsReference(v) {
			return true
		}
	}
	return false
}

// Resolve returns a copy of cfg with every keyring reference replaced by its
// secret. cfg itself is not modified.
func Resolve(cfg adapter.Config, store Store, service string) (adapter.Config, error) {
	if !HasReferences(cfg) {
		return cfg, nil
	}
	if service == "" {
		service = DefaultService
	}

	out := cfg.Clone()
	for key, v := range cfg {
		if !IsReference(v) {
			continue
		}
		account := strings.TrimPrefix(v.(string), Prefix)
		secret, err := store.Get(service, account)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", adapter.NewConfigurationError(cfg.Driver(), key, "keyring lookup failed"), err)
		}
		out[key] = secret
	}
	return out, nil
}

// DefaultPath is the file backend location, $HOPPER_KEYRING_PATH or
// ~/.hopper/keyring.json.
func DefaultPath() string {
	if path := os.Getenv(PathEnv); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "hopper-keyring.json")
	}
	return filepath.Join(home, ".hopper", "keyring.json")
}

// MasterKeyFromEnv returns the file backend master key.
func MasterKeyFromEnv() string {
	return os.Getenv(MasterKeyEnv)
}
