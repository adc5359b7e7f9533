package customer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid marks request input rejected before any state change.
var ErrInvalid = errors.New("invalid input")

// phonePattern enforces +<country code><national number> (1-3 + 1-14 digits).
var phonePattern = regexp.MustCompile(`^\+\d{1,3}\d{1,14}$`)

// ValidPhone reports whether the number matches the required E.164 shape.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Customer ids are 14-digit numeric strings, drawn uniformly from
// [10^13, 10^14).
var customerIDSpan = big.NewInt(90_000_000_000_000)

const customerIDFloor = 10_000_000_000_000

// Service manages customer lifecycle and balance reads.
type Service struct {
	repo Repository
}

// NewService creates a customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures the data required to onboard a customer.
type RegisterInput struct {
	Name         string
	Phone        string
	TotalAmount  int64
	MinLimit     int64
	FaceTemplate string
}

// Register validates the input, generates a unique customer id and stores the
// customer. Id collisions are retried until an unused id is found, so the
// returned id is unique across all existing customers.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Customer{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if !phonePattern.MatchString(input.Phone) {
		return Customer{}, fmt.Errorf("%w: phone must include a valid country code", ErrInvalid)
	}
	if input.TotalAmount < 0 {
		return Customer{}, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalid)
	}
	if input.MinLimit < 0 {
		return Customer{}, fmt.Errorf("%w: min limit cannot be negative", ErrInvalid)
	}

	if _, err := s.repo.GetByPhone(ctx, input.Phone); err == nil {
		return Customer{}, ErrPhoneExists
	} else if !errors.Is(err, ErrNotFound) {
		return Customer{}, err
	}

	for {
		id, err := generateCustomerID()
		if err != nil {
			return Customer{}, err
		}
		c := Customer{
			ID:           uuid.NewString(),
			CustomerID:   id,
			Name:         input.Name,
			Phone:        input.Phone,
			FaceTemplate: input.FaceTemplate,
			TotalAmount:  input.TotalAmount,
			MinLimit:     input.MinLimit,
			CreatedAt:    time.Now().UTC(),
		}
		err = s.repo.Create(ctx, c)
		if errors.Is(err, ErrCustomerIDTaken) {
			continue
		}
		if err != nil {
			return Customer{}, err
		}
		return c, nil
	}
}

// GetByID fetches a customer by public id.
func (s *Service) GetByID(ctx context.Context, customerID string) (Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// LookupByName resolves a customer by name.
func (s *Service) LookupByName(ctx context.Context, name string) (Customer, error) {
	if strings.TrimSpace(name) == "" {
		return Customer{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	return s.repo.GetByName(ctx, name)
}

// LookupByPhone resolves a customer by phone number.
func (s *Service) LookupByPhone(ctx context.Context, phone string) (Customer, error) {
	if strings.TrimSpace(phone) == "" {
		return Customer{}, fmt.Errorf("%w: phone is required", ErrInvalid)
	}
	return s.repo.GetByPhone(ctx, phone)
}

// UpdatePhone changes the registered phone number after validation. The old
// number becomes available for reuse; enrollment data stays bound to the
// customer.
func (s *Service) UpdatePhone(ctx context.Context, customerID, phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: phone must include a valid country code", ErrInvalid)
	}
	return s.repo.UpdatePhone(ctx, customerID, phone)
}

// Transactions returns the customer's withdrawal history.
func (s *Service) Transactions(ctx context.Context, customerID string) ([]Transaction, error) {
	if _, err := s.repo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.Transactions(ctx, customerID)
}

func generateCustomerID() (string, error) {
	n, err := rand.Int(rand.Reader, customerIDSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+customerIDFloor), nil
}
