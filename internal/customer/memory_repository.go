package customer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu           sync.RWMutex
	customers    map[string]Customer // keyed by customer id
	transactions map[string][]Transaction
}

// NewMemoryRepository builds an in-memory customer store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		customers:    make(map[string]Customer),
		transactions: make(map[string][]Transaction),
	}
}

func (r *memoryRepository) Create(_ context.Context, c Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.customers[c.CustomerID]; exists {
		return ErrCustomerIDTaken
	}
	for _, existing := range r.customers {
		if existing.Phone == c.Phone {
			return ErrPhoneExists
		}
	}
	r.customers[c.CustomerID] = c
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, customerID string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[customerID]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) GetByName(_ context.Context, name string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if c.Name == name {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

func (r *memoryRepository) GetByPhone(_ context.Context, phone string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

func (r *memoryRepository) UpdatePhone(_ context.Context, customerID, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range r.customers {
		if existing.CustomerID != customerID && existing.Phone == phone {
			return ErrPhoneExists
		}
	}
	c.Phone = phone
	r.customers[customerID] = c
	return nil
}

func (r *memoryRepository) Withdraw(_ context.Context, customerID string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return 0, ErrNotFound
	}
	if c.TotalAmount < amount {
		return 0, ErrInsufficientBalance
	}
	c.TotalAmount -= amount
	r.customers[customerID] = c
	r.transactions[customerID] = append(r.transactions[customerID], Transaction{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	})
	return c.TotalAmount, nil
}

func (r *memoryRepository) Transactions(_ context.Context, customerID string) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txs := make([]Transaction, len(r.transactions[customerID]))
	copy(txs, r.transactions[customerID])
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}
