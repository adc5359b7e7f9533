package withdrawal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the position of a withdrawal authorization attempt. The sequence
// is strict: OTP verification precedes the face check, which precedes the
// debit. The binding lives server-side, so client call order alone can never
// skip a step.
type State string

const (
	// StateOtpVerified means the withdraw challenge was consumed successfully.
	StateOtpVerified State = "otp_verified"
	// StateFaceVerified means the face gate matched after OTP verification.
	StateFaceVerified State = "face_verified"
)

// ErrNoAttempt indicates no authorization attempt is in the required state.
var ErrNoAttempt = errors.New("no active withdrawal attempt")

// AttemptStore tracks in-progress authorization attempts, one per customer.
type AttemptStore interface {
	Put(ctx context.Context, customerID string, state State, ttl time.Duration) error
	Get(ctx context.Context, customerID string) (State, error)
	Clear(ctx context.Context, customerID string) error
}

const attemptPrefix = "withdrawal:attempt:v1:"

// RedisAttemptStore keeps attempt state in Redis with TTL-backed expiry.
type RedisAttemptStore struct {
	cache *redis.Client
}

// NewRedisAttemptStore builds a Redis-backed attempt store.
func NewRedisAttemptStore(cache *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{cache: cache}
}

func (s *RedisAttemptStore) Put(ctx context.Context, customerID string, state State, ttl time.Duration) error {
	return s.cache.Set(ctx, attemptPrefix+customerID, string(state), ttl).Err()
}

func (s *RedisAttemptStore) Get(ctx context.Context, customerID string) (State, error) {
	val, err := s.cache.Get(ctx, attemptPrefix+customerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoAttempt
	}
	if err != nil {
		return "", err
	}
	return State(val), nil
}

func (s *RedisAttemptStore) Clear(ctx context.Context, customerID string) error {
	return s.cache.Del(ctx, attemptPrefix+customerID).Err()
}

type memoryAttempt struct {
	state    State
	deadline time.Time
}

type memoryAttemptStore struct {
	mu       sync.Mutex
	now      func() time.Time
	attempts map[string]memoryAttempt
}

// NewMemoryAttemptStore builds an in-memory attempt store for development and tests.
func NewMemoryAttemptStore() AttemptStore {
	return &memoryAttemptStore{now: time.Now, attempts: make(map[string]memoryAttempt)}
}

func (s *memoryAttemptStore) Put(_ context.Context, customerID string, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[customerID] = memoryAttempt{state: state, deadline: s.now().Add(ttl)}
	return nil
}

func (s *memoryAttemptStore) Get(_ context.Context, customerID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[customerID]
	if !ok {
		return "", ErrNoAttempt
	}
	if s.now().After(a.deadline) {
		delete(s.attempts, customerID)
		return "", ErrNoAttempt
	}
	return a.state, nil
}

func (s *memoryAttemptStore) Clear(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, customerID)
	return nil
}
