package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// OverrideStore persists a contract address override for a single local profile.
// It is not authoritative: the backend token table is updated through the admin API.
type OverrideStore interface {
	ContractAddressOverride() (string, bool, error)
	SetContractAddressOverride(address string) error
	ClearContractAddressOverride() error
}

// MemoryOverrideStore keeps the override in process memory
type MemoryOverrideStore struct {
	mu      sync.RWMutex
	address string
	set     bool
}

// NewMemoryOverrideStore creates an empty in-memory store
func NewMemoryOverrideStore() *MemoryOverrideStore {
	return &MemoryOverrideStore{}
}

func (s *MemoryOverrideStore) ContractAddressOverride() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, s.set, nil
}

func (s *MemoryOverrideStore) SetContractAddressOverride(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("contract address is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address, s.set = address, true
	return nil
}

func (s *MemoryOverrideStore) ClearContractAddressOverride() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address, s.set = "", false
	return nil
}

// Profile is the on-disk shape of the local profile file
type Profile struct {
	ContractAddressOverride string `yaml:"contract_address_override,omitempty"`
}

// FileOverrideStore keeps the override in a YAML profile file
type FileOverrideStore struct {
	path string
	mu   sync.Mutex
}

// NewFileOverrideStore creates a store backed by the YAML file at path. The file need not exist.
func NewFileOverrideStore(path string) *FileOverrideStore {
	return &FileOverrideStore{path: path}
}

// Path returns the profile file location
func (s *FileOverrideStore) Path() string { return s.path }

func (s *FileOverrideStore) ContractAddressOverride() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.read()
	if err != nil {
		return "", false, err
	}
	return p.ContractAddressOverride, p.ContractAddressOverride != "", nil
}

func (s *FileOverrideStore) SetContractAddressOverride(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("contract address is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.read()
	if err != nil {
		return err
	}
	p.ContractAddressOverride = address
	return s.write(p)
}

func (s *FileOverrideStore) ClearContractAddressOverride() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.read()
	if err != nil {
		return err
	}
	p.ContractAddressOverride = ""
	return s.write(p)
}

func (s *FileOverrideStore) read() (*Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", s.path, err)
	}
	return &p, nil
}

func (s *FileOverrideStore) write(p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
