package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/customer"
	"github.com/face-teller/face_teller/internal/face"
)

var (
	// ErrOutOfOrder indicates a step was attempted before its precondition
	// was met in the current authorization attempt.
	ErrOutOfOrder = errors.New("withdrawal step out of order")

	// ErrBelowMinLimit indicates the configured floor policy denied the debit.
	ErrBelowMinLimit = errors.New("withdrawal would breach the minimum balance")

	// ErrInvalidAmount indicates a non-positive withdrawal amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Policy decides whether a withdrawal is allowed for the customer before the
// debit runs. The default allows everything; FloorPolicy enforces MinLimit.
type Policy func(c customer.Customer, amount int64) error

// AllowAll performs no additional checks; balance sufficiency is still
// enforced by the store.
func AllowAll(customer.Customer, int64) error { return nil }

// FloorPolicy denies debits that would leave the balance below MinLimit.
func FloorPolicy(c customer.Customer, amount int64) error {
	if c.TotalAmount-amount < c.MinLimit {
		return ErrBelowMinLimit
	}
	return nil
}

// Service drives the withdrawal authorization state machine:
//
//	Start -> OtpVerified -> FaceVerified -> Committed
//
// Any failed transition discards the in-progress attempt; the customer
// restarts from the beginning.
type Service struct {
	repo       customer.Repository
	challenges challenge.Store
	attempts   AttemptStore
	gate       *face.Gate
	policy     Policy
	attemptTTL time.Duration
	logger     *slog.Logger
}

// NewService constructs the withdrawal executor.
func NewService(repo customer.Repository, challenges challenge.Store, attempts AttemptStore, gate *face.Gate, policy Policy, attemptTTL time.Duration, logger *slog.Logger) *Service {
	if policy == nil {
		policy = AllowAll
	}
	return &Service{
		repo:       repo,
		challenges: challenges,
		attempts:   attempts,
		gate:       gate,
		policy:     policy,
		attemptTTL: attemptTTL,
		logger:     logger,
	}
}

// VerifyOTP consumes the withdraw challenge and advances the attempt to
// OtpVerified. The challenge must be bound to the requesting customer.
func (s *Service) VerifyOTP(ctx context.Context, customerID, code string) error {
	if err := s.challenges.VerifyFor(ctx, customerID, challenge.PurposeWithdraw, code); err != nil {
		s.discard(ctx, customerID)
		return err
	}
	if err := s.attempts.Put(ctx, customerID, StateOtpVerified, s.attemptTTL); err != nil {
		return err
	}
	s.logger.Info("withdrawal otp verified", "customer_id", customerID)
	return nil
}

// VerifyFace runs the face gate and advances the attempt to FaceVerified.
// It requires the attempt to be in OtpVerified state: face check alone is
// never sufficient, it is the second factor.
func (s *Service) VerifyFace(ctx context.Context, customerID, probeEncoded string) (face.Decision, error) {
	state, err := s.attempts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoAttempt) {
			return face.Decision{}, fmt.Errorf("%w: otp verification required first", ErrOutOfOrder)
		}
		return face.Decision{}, err
	}
	if state != StateOtpVerified {
		s.discard(ctx, customerID)
		return face.Decision{}, fmt.Errorf("%w: otp verification required first", ErrOutOfOrder)
	}

	decision, err := s.gate.Verify(ctx, customerID, probeEncoded)
	if err != nil {
		s.discard(ctx, customerID)
		return face.Decision{}, err
	}
	if !decision.Matched {
		s.discard(ctx, customerID)
		return decision, nil
	}

	if err := s.attempts.Put(ctx, customerID, StateFaceVerified, s.attemptTTL); err != nil {
		return face.Decision{}, err
	}
	s.logger.Info("withdrawal face verified", "customer_id", customerID, "score", decision.Score)
	return decision, nil
}

// Execute commits the debit once both gates have passed. The balance check
// and transaction append happen in one atomic unit at the store, so
// concurrent attempts for the same customer cannot both commit against a
// stale balance. The attempt is discarded regardless of outcome.
func (s *Service) Execute(ctx context.Context, customerID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	state, err := s.attempts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoAttempt) {
			return 0, fmt.Errorf("%w: face verification required first", ErrOutOfOrder)
		}
		return 0, err
	}
	if state != StateFaceVerified {
		return 0, fmt.Errorf("%w: face verification required first", ErrOutOfOrder)
	}
	defer s.discard(ctx, customerID)

	cust, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	if err := s.policy(cust, amount); err != nil {
		return 0, err
	}

	newBalance, err := s.repo.Withdraw(ctx, customerID, amount)
	if err != nil {
		return 0, err
	}
	s.logger.Info("withdrawal committed", "customer_id", customerID, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

func (s *Service) discard(ctx context.Context, customerID string) {
	if err := s.attempts.Clear(ctx, customerID); err != nil {
		s.logger.Warn("clear withdrawal attempt", "customer_id", customerID, "error", err)
	}
}
