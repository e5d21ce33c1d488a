package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps secrets AES-GCM encrypted in a JSON file, for hosts without
// a system keyring.
type FileStore struct {
	path string
	key  [32]byte

	mu sync.Mutex
}

type fileEntry struct {
	Service string `json:"service"`
	Account string `json:"account"`
	Secret  string `json:"secret"`
}

// NewFileStore returns a store at path keyed by masterKey.
func NewFileStore(path, masterKey string) *FileStore {
	if masterKey == "" {
		masterKey = DefaultService + "-default-master-key"
	}
	return &FileStore{path: path, key: sha256.Sum256([]byte(masterKey))}
}

func (f *FileStore) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Service == service && e.Account == account {
			return f.open(e.Secret)
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrNotFound, service, account)
}

func (f *FileStore) Set(service, account, secret string) error {
	sealed, err := f.seal(secret)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range entries {
		if entries[i].Service == service && entries[i].Account == account {
			entries[i].Secret = sealed
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, fileEntry{Service: service, Account: account, Secret: sealed})
	}
	return f.save(entries)
}

func (f *FileStore) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.Service != service || e.Account != account {
			kept = append(kept, e)
		}
	}
	return f.save(kept)
}

func (f *FileStore) load() ([]fileEntry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring file: %w", err)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode keyring file: %w", err)
	}
	return entries, nil
}

func (f *FileStore) save(entries []fileEntry) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(f.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (f *FileStore) seal(secret string) (string, error) {
	gcm, err := f.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(secret), nil)), nil
}

func (f *FileStore) open(sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("corrupt keyring entry: %w", err)
	}
	gcm, err := f.gcm()
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("corrupt keyring entry: too short")
	}

	plain, err := gcm.Open(nil, data[:gcm.NonceSize()], data[gcm.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt keyring entry, wrong master key?: %w", err)
	}
	return string(plain), nil
}
