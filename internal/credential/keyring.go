// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credential resolves account passwords. A file in the secrets
// directory wins; otherwise the OS keyring is consulted.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "officebridge"

// secretSuffix is appended to the account name to form its secrets file name.
const secretSuffix = "-password"

// ErrNotFound is returned when no password is stored for an account.
var ErrNotFound = errors.New("no password stored")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/officebridge/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("officebridge-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Store looks passwords up in loaded secrets, then in the keyring.
type Store struct {
	secrets map[string]string
	open    func() (keyring.Keyring, error)
}

// NewStore returns a Store over secrets (as returned by secrets.Load).
func NewStore(secrets map[string]string) *Store {
	return &Store{secrets: secrets, open: openKeyring}
}

// SecretName returns the secrets file name holding account's password.
func SecretName(account string) string {
	return account + secretSuffix
}

// Password returns the password for account.
func (s *Store) Password(account string) (string, error) {
	if v, ok := s.secrets[SecretName(account)]; ok {
		return v, nil
	}

	ring, err := s.open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(account)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("password for %q: %w", account, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", account, err)
	}
	return string(item.Data), nil
}

// SetPassword stores password for account in the keyring.
func (s *Store) SetPassword(account, password string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         account,
		Data:        []byte(password),
		Label:       serviceName + " " + account,
		Description: "mail account password",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", account, err)
	}
	return nil
}

// DeletePassword removes account's password from the keyring.
func (s *Store) DeletePassword(account string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(account); err != nil {
		return fmt.Errorf("deleting credential %q: %w", account, err)
	}
	return nil
}
