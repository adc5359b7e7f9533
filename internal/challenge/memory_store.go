package challenge

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type memoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	records map[string]record // keyed by purpose:customerID
	index   map[string]string // code digest -> customerID
}

// NewMemoryStore builds an in-memory challenge store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{
		now:     time.Now,
		records: make(map[string]record),
		index:   make(map[string]string),
	}
}

func memKey(customerID string, purpose Purpose) string {
	return string(purpose) + ":" + customerID
}

func (s *memoryStore) Issue(_ context.Context, customerID string, purpose Purpose, ttl time.Duration) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(customerID, purpose)
	if old, exists := s.records[key]; exists {
		delete(s.index, old.Digest)
	}

	now := s.now().UTC()
	rec := record{
		CustomerID: customerID,
		CodeHash:   string(hash),
		Digest:     codeDigest(purpose, code),
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	s.records[key] = rec
	s.index[rec.Digest] = customerID
	return code, nil
}

func (s *memoryStore) Verify(ctx context.Context, purpose Purpose, code string) (string, error) {
	s.mu.Lock()
	customerID, ok := s.index[codeDigest(purpose, code)]
	s.mu.Unlock()
	if !ok {
		return "", ErrNotFound
	}
	if err := s.VerifyFor(ctx, customerID, purpose, code); err != nil {
		return "", err
	}
	return customerID, nil
}

func (s *memoryStore) VerifyFor(_ context.Context, customerID string, purpose Purpose, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memKey(customerID, purpose)
	rec, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}

	if s.now().After(rec.ExpiresAt) {
		s.removeLocked(key, rec.Digest)
		return ErrExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		rec.Attempts++
		if rec.Attempts >= maxAttempts {
			s.removeLocked(key, rec.Digest)
		} else {
			s.records[key] = rec
		}
		return ErrMismatch
	}

	s.removeLocked(key, rec.Digest)
	return nil
}

func (s *memoryStore) Revoke(_ context.Context, customerID string, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(customerID, purpose)
	if rec, ok := s.records[key]; ok {
		s.removeLocked(key, rec.Digest)
	}
	return nil
}

func (s *memoryStore) removeLocked(key, digest string) {
	delete(s.records, key)
	delete(s.index, digest)
}
