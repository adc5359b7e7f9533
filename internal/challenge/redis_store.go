package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	recordPrefix = "challenge:v1:"
	indexPrefix  = "challenge:v1:idx:"

	// graceWindow keeps the stored record around past its logical expiry so
	// verification can answer ErrExpired instead of ErrNotFound. After the
	// grace window Redis reclaims the key and the distinction is lost.
	graceWindow = 30 * time.Minute
)

type record struct {
	CustomerID string    `json:"customer_id"`
	CodeHash   string    `json:"code_hash"`
	Digest     string    `json:"digest"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
}

// RedisStore keeps challenges in Redis with TTL-backed reclamation.
type RedisStore struct {
	cache *redis.Client
	now   func() time.Time
}

// NewRedisStore builds a Redis-backed challenge store.
func NewRedisStore(cache *redis.Client) *RedisStore {
	return &RedisStore{cache: cache, now: time.Now}
}

func recordKey(customerID string, purpose Purpose) string {
	return recordPrefix + string(purpose) + ":" + customerID
}

// Issue stores a fresh challenge for the pair, replacing any prior one. Only
// the bcrypt hash of the code is persisted.
func (s *RedisStore) Issue(ctx context.Context, customerID string, purpose Purpose, ttl time.Duration) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	key := recordKey(customerID, purpose)
	now := s.now().UTC()
	rec := record{
		CustomerID: customerID,
		CodeHash:   string(hash),
		Digest:     codeDigest(purpose, code),
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}

	// Drop the prior challenge's code index before overwriting the record,
	// so the replaced code stops resolving.
	if err := s.dropIndex(ctx, key); err != nil {
		return "", err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	retain := ttl + graceWindow
	if err := s.cache.Set(ctx, key, payload, retain).Err(); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	if err := s.cache.Set(ctx, indexPrefix+rec.Digest, customerID, retain).Err(); err != nil {
		s.cache.Del(ctx, key)
		return "", fmt.Errorf("store challenge index: %w", err)
	}
	return code, nil
}

// Verify resolves the customer through the code index and consumes the challenge.
func (s *RedisStore) Verify(ctx context.Context, purpose Purpose, code string) (string, error) {
	customerID, err := s.cache.Get(ctx, indexPrefix+codeDigest(purpose, code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("challenge lookup: %w", err)
	}
	if err := s.VerifyFor(ctx, customerID, purpose, code); err != nil {
		return "", err
	}
	return customerID, nil
}

// VerifyFor checks the submitted code against the customer's live challenge.
func (s *RedisStore) VerifyFor(ctx context.Context, customerID string, purpose Purpose, code string) error {
	key := recordKey(customerID, purpose)
	raw, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("challenge lookup: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("decode challenge: %w", err)
	}

	if s.now().After(rec.ExpiresAt) {
		s.remove(ctx, key, rec.Digest)
		return ErrExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		rec.Attempts++
		if rec.Attempts >= maxAttempts {
			s.remove(ctx, key, rec.Digest)
			return ErrMismatch
		}
		if payload, err := json.Marshal(rec); err == nil {
			s.cache.Set(ctx, key, payload, redis.KeepTTL)
		}
		return ErrMismatch
	}

	// Single-use: consumed on success, replay fails with ErrNotFound.
	s.remove(ctx, key, rec.Digest)
	return nil
}

// Revoke discards the live challenge for the pair.
func (s *RedisStore) Revoke(ctx context.Context, customerID string, purpose Purpose) error {
	key := recordKey(customerID, purpose)
	if err := s.dropIndex(ctx, key); err != nil {
		return err
	}
	return s.cache.Del(ctx, key).Err()
}

func (s *RedisStore) dropIndex(ctx context.Context, key string) error {
	raw, err := s.cache.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("challenge lookup: %w", err)
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err == nil && rec.Digest != "" {
		s.cache.Del(ctx, indexPrefix+rec.Digest)
	}
	return nil
}

func (s *RedisStore) remove(ctx context.Context, key, digest string) {
	s.cache.Del(ctx, key)
	if digest != "" {
		s.cache.Del(ctx, indexPrefix+digest)
	}
}
