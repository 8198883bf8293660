package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// minPasswordLength is the shortest passphrase Seal accepts
const minPasswordLength = 8

// Seal encrypts the file at path in place with a scrypt passphrase
func Seal(path, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isAgeEncrypted(data) {
		return fmt.Errorf("%s is already encrypted", path)
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	encrypted, err := encryptData(data, recipient)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", path, err)
	}
	return atomicWrite(path, encrypted, info.Mode().Perm())
}

// Open decrypts the file at path in place
func Open(path, password string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !isAgeEncrypted(data) {
		return fmt.Errorf("%s is not encrypted", path)
	}

	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}
	plain, err := decryptData(data, identity)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrongPassword, err)
	}
	return atomicWrite(path, plain, info.Mode().Perm())
}

// encryptData encrypts data using Age with the given recipient
func encryptData(data []byte, recipient *age.ScryptRecipient) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decryptData decrypts Age-encrypted data using the given identity
func decryptData(data []byte, identity *age.ScryptIdentity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
