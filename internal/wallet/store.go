package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"

	"github.com/okanewa/tradewallet/pkg/models"
)

// ErrNoState is returned by Store.Load when nothing has been persisted yet.
var ErrNoState = errors.New("no wallet state persisted")

// Store persists the wallet document. The Wallet serializes all access, so
// implementations need not be safe for concurrent use.
type Store interface {
	// Load returns the persisted state, or ErrNoState when absent.
	Load() (*models.WalletState, error)

	// Save durably writes the full state, replacing any previous record.
	Save(*models.WalletState) error
}

// --- File store ---

// FileStore keeps the wallet as a JSON document at a fixed path on an
// afero filesystem (the OS filesystem in production, a MemMapFs in tests).
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	return &FileStore{fs: fsys, path: path}
}

// Path returns the location of the persisted document.
func (s *FileStore) Path() string { return s.path }

// Load reads and decodes the persisted document.
func (s *FileStore) Load() (*models.WalletState, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("read wallet file %s: %w", s.path, err)
	}

	var state models.WalletState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode wallet file %s: %w", s.path, err)
	}
	if state.Holdings == nil {
		state.Holdings = make(map[string]decimal.Decimal)
	}
	return &state, nil
}

// Save writes the state as indented JSON.
func (s *FileStore) Save(state *models.WalletState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallet state: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write wallet file %s: %w", s.path, err)
	}
	return nil
}

// Backup copies the persisted document byte-for-byte to dst.
func (s *FileStore) Backup(dst string) error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoState
		}
		return fmt.Errorf("read wallet file %s: %w", s.path, err)
	}
	if err := afero.WriteFile(s.fs, dst, data, 0o644); err != nil {
		return fmt.Errorf("write backup %s: %w", dst, err)
	}
	return nil
}

// Restore replaces the persisted document with the bytes at src. The
// backup must decode as a wallet document; the copy is byte-for-byte.
func (s *FileStore) Restore(src string) (*models.WalletState, error) {
	data, err := afero.ReadFile(s.fs, src)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", src, err)
	}

	var state models.WalletState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("backup %s is not a wallet document: %w", src, err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write wallet file %s: %w", s.path, err)
	}
	return &state, nil
}

// --- In-memory store ---

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu    sync.Mutex
	state *models.WalletState
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

// Load returns the stored state, or ErrNoState when empty.
func (m *MemStore) Load() (*models.WalletState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrNoState
	}
	out := m.state.Clone()
	return &out, nil
}

// Save stores a copy of the state.
func (m *MemStore) Save(state *models.WalletState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := state.Clone()
	m.state = &s
	return nil
}
