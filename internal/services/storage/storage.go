package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
)

// ageHeader is the prefix of Age-encrypted files
const ageHeader = "age-encryption.org"

var (
	// ErrLocked is returned when reading an encrypted file before Unlock
	ErrLocked = errors.New("file is encrypted but storage is locked")

	// ErrWrongPassword is returned when the passphrase does not decrypt the file
	ErrWrongPassword = errors.New("incorrect dataset password")
)

// Storage provides transparent read access to plain or age-encrypted files
type Storage struct {
	identity *age.ScryptIdentity
	mu       sync.RWMutex
}

// New creates a new, locked Storage
func New() *Storage {
	return &Storage{}
}

// IsUnlocked returns true once a passphrase has been supplied
func (s *Storage) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Unlock stores the passphrase used to decrypt encrypted files.
// The passphrase is checked lazily on the first encrypted read.
func (s *Storage) Unlock(password string) error {
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	return nil
}

// Lock clears the encryption key from memory
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}

// IsEncrypted reports whether the file at path is age-encrypted
func (s *Storage) IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(ageHeader)+1)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return isAgeEncrypted(head[:n]), nil
}

// ReadFile reads and, if needed, decrypts a file
func (s *Storage) ReadFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !isAgeEncrypted(data) {
		return data, nil
	}
	if s.identity == nil {
		return nil, ErrLocked
	}
	plain, err := decryptData(data, s.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassword, err)
	}
	return plain, nil
}

// OpenFile returns a reader for a potentially encrypted file
func (s *Storage) OpenFile(path string) (io.ReadCloser, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat returns file info, useful for checking existence
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
