package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
)

// CredentialStore keeps the account collection in memory and mirrors it
// to a KeyValueStore under KeyCredentials. A mutation is persisted before
// it becomes visible, so a failed write leaves both sides unchanged.
type CredentialStore struct {
	kv         domain.KeyValueStore
	collection *domain.CredentialCollection
	strict     bool
	mu         sync.RWMutex
}

type Option func(*CredentialStore)

// WithStrictHandles makes SetActive and RemoveAccount reject handles that
// are not in the collection. Without it SetActive stores any handle and
// RemoveAccount ignores unknown handles.
func WithStrictHandles(strict bool) Option {
	return func(s *CredentialStore) {
		s.strict = strict
	}
}

func NewCredentialStore(kv domain.KeyValueStore, opts ...Option) *CredentialStore {
	s := &CredentialStore{kv: kv, strict: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the persisted collection. A missing entry yields nil. A
// malformed entry also leaves the store empty and is reported as
// ErrStorageCorruption so the caller can log it; the next successful
// mutation overwrites it. An active handle that names no account is kept;
// it means no active session.
func (s *CredentialStore) Hydrate() (*domain.CredentialCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection = nil

	raw, ok, err := s.kv.Get(KeyCredentials)
	if err != nil {
		logger.LogError("HYDRATE", KeyCredentials, err)
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if !ok || raw == "" {
		logger.Log("No stored credentials")
		return nil, nil
	}

	var collection domain.CredentialCollection
	if err := json.Unmarshal([]byte(raw), &collection); err != nil {
		logger.LogError("HYDRATE", KeyCredentials, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageCorruption, err)
	}
	if err := collection.Validate(); err != nil {
		logger.LogError("HYDRATE", KeyCredentials, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageCorruption, err)
	}

	s.collection = &collection
	logger.Log("Hydrated %d accounts (active: %s)", len(collection.Accounts), collection.ActiveHandle)
	return s.collection.Clone(), nil
}

func (s *CredentialStore) Strict() bool {
	return s.strict
}

// Collection returns a copy of the current collection, or nil.
func (s *CredentialStore) Collection() *domain.CredentialCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Clone()
}

// AddAccount puts cred first and makes it active. An existing entry with
// the same handle is replaced.
func (s *CredentialStore) AddAccount(cred domain.Credential) error {
	if cred == nil || cred.Handle() == "" {
		return errors.New("credential handle is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := &domain.CredentialCollection{
		Accounts:     []domain.Credential{cred},
		ActiveHandle: cred.Handle(),
	}
	replaced := false
	if s.collection != nil {
		for _, account := range s.collection.Accounts {
			if account.Handle() == cred.Handle() {
				replaced = true
				continue
			}
			next.Accounts = append(next.Accounts, account)
		}
	}

	if err := s.commit(next); err != nil {
		return err
	}

	if replaced {
		logger.Log("Updated account %s (%s)", cred.Handle(), cred.Kind())
	} else {
		logger.Log("Added account %s (%s)", cred.Handle(), cred.Kind())
	}
	return nil
}

// UpdateAccount replaces the entry with cred's handle in place, keeping
// order and the active handle. Used when tokens are refreshed.
func (s *CredentialStore) UpdateAccount(cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred == nil {
		return errors.New("credential is required")
	}
	if !s.collection.Contains(cred.Handle()) {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, cred.Handle())
	}

	next := s.collection.Clone()
	for i, account := range next.Accounts {
		if account.Handle() == cred.Handle() {
			next.Accounts[i] = cred
		}
	}
	return s.commit(next)
}

// RemoveAccount drops handle. Removing the last account clears the
// collection and deletes the persisted entry; removing the active account
// activates the first remaining one. It reports whether the removed
// account was the active one.
func (s *CredentialStore) RemoveAccount(handle string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.collection.Contains(handle) {
		if s.strict {
			logger.LogError("REMOVE_ACCOUNT", handle, domain.ErrAccountNotFound)
			return false, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, handle)
		}
		return false, nil
	}

	wasActive := s.collection.ActiveHandle == handle

	remaining := make([]domain.Credential, 0, len(s.collection.Accounts)-1)
	for _, account := range s.collection.Accounts {
		if account.Handle() != handle {
			remaining = append(remaining, account)
		}
	}

	var next *domain.CredentialCollection
	if len(remaining) > 0 {
		next = &domain.CredentialCollection{
			Accounts:     remaining,
			ActiveHandle: s.collection.ActiveHandle,
		}
		if wasActive {
			next.ActiveHandle = remaining[0].Handle()
		}
	}

	if err := s.commit(next); err != nil {
		return false, err
	}

	logger.Log("Removed account %s", handle)
	return wasActive, nil
}

// SetActive is a no-op when there are no accounts.
func (s *CredentialStore) SetActive(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection == nil {
		return nil
	}
	if s.strict && !s.collection.Contains(handle) {
		logger.LogError("SET_ACTIVE", handle, domain.ErrAccountNotFound)
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, handle)
	}

	next := s.collection.Clone()
	next.ActiveHandle = handle
	if err := s.commit(next); err != nil {
		return err
	}

	logger.Log("Active account set to %s", handle)
	return nil
}

// Clear forgets every account.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(nil); err != nil {
		return err
	}
	logger.Log("Cleared all accounts")
	return nil
}

func (s *CredentialStore) commit(next *domain.CredentialCollection) error {
	if err := persist(s.kv, next); err != nil {
		return err
	}
	s.collection = next
	return nil
}

func persist(kv domain.KeyValueStore, c *domain.CredentialCollection) error {
	if c == nil {
		if err := kv.Remove(KeyCredentials); err != nil {
			logger.LogError("PERSIST", KeyCredentials, err)
			return fmt.Errorf("failed to remove credentials: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		logger.LogError("MARSHAL", KeyCredentials, err)
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := kv.Set(KeyCredentials, string(data)); err != nil {
		logger.LogError("PERSIST", KeyCredentials, err)
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	return nil
}
