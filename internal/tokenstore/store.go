// Package tokenstore persists small client preferences, most importantly the
// push-notification message token, in an embedded BadgerDB.
package tokenstore

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// KeyMessageToken is the preference key of the push message token.
const KeyMessageToken = "token"

// ErrNotFound indicates that the preference is not set.
var ErrNotFound = errors.New("preference not found")

// Store is a string preference store backed by BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the preference database in dir.
func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a store that is discarded on Close.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to read preference %q: %w", key, err)
	}

	return string(value), nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write preference %q: %w", key, err)
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete preference %q: %w", key, err)
	}

	return nil
}

// SetToken persists the message token. Failures are reported as false.
func (s *Store) SetToken(token string) bool {
	return s.Set(KeyMessageToken, token) == nil
}

// GetToken returns the message token, or "" when it is unset or unreadable.
func (s *Store) GetToken() string {
	token, err := s.Get(KeyMessageToken)
	if err != nil {
		return ""
	}

	return token
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
