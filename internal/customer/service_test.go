package customer

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
)

var customerIDShape = regexp.MustCompile(`^\d{14}$`)

func register(t *testing.T, svc *Service, name, phone string, amount int64) Customer {
	t.Helper()
	c, err := svc.Register(context.Background(), RegisterInput{
		Name:        name,
		Phone:       phone,
		TotalAmount: amount,
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return c
}

func TestRegisterAndLookup(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	c := register(t, svc, "Alice Diallo", "+242061234567", 25_000)
	if !customerIDShape.MatchString(c.CustomerID) {
		t.Fatalf("expected 14-digit customer id, got %q", c.CustomerID)
	}
	if c.TotalAmount != 25_000 {
		t.Fatalf("expected balance 25000, got %d", c.TotalAmount)
	}

	byName, err := svc.LookupByName(ctx, "Alice Diallo")
	if err != nil {
		t.Fatalf("lookup by name: %v", err)
	}
	if byName.CustomerID != c.CustomerID {
		t.Fatalf("name lookup resolved %s, want %s", byName.CustomerID, c.CustomerID)
	}

	byPhone, err := svc.LookupByPhone(ctx, "+242061234567")
	if err != nil {
		t.Fatalf("lookup by phone: %v", err)
	}
	if byPhone.CustomerID != c.CustomerID {
		t.Fatalf("phone lookup resolved %s, want %s", byPhone.CustomerID, c.CustomerID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Phone: "+242061234567"}},
		{"phone without country code", RegisterInput{Name: "Bob", Phone: "061234567"}},
		{"phone with letters", RegisterInput{Name: "Bob", Phone: "+242ABC4567"}},
		{"negative balance", RegisterInput{Name: "Bob", Phone: "+242061234567", TotalAmount: -1}},
		{"negative min limit", RegisterInput{Name: "Bob", Phone: "+242061234567", MinLimit: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.input); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	register(t, svc, "Alice", "+242061234567", 0)
	_, err := svc.Register(ctx, RegisterInput{Name: "Mallory", Phone: "+242061234567"})
	if !errors.Is(err, ErrPhoneExists) {
		t.Fatalf("expected ErrPhoneExists, got %v", err)
	}
}

func TestRegisterAssignsDistinctIDs(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		c := register(t, svc, "Customer", "+24206"+padDigits(i), 0)
		if seen[c.CustomerID] {
			t.Fatalf("duplicate customer id %s", c.CustomerID)
		}
		seen[c.CustomerID] = true
	}
}

func padDigits(i int) string {
	digits := []byte{'0', '0', '0', '0', '0', '0', '0'}
	for pos := len(digits) - 1; i > 0 && pos >= 0; pos-- {
		digits[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(digits)
}

func TestUpdatePhone(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	alice := register(t, svc, "Alice", "+242061111111", 0)
	register(t, svc, "Bob", "+242062222222", 0)

	if err := svc.UpdatePhone(ctx, alice.CustomerID, "+242063333333"); err != nil {
		t.Fatalf("update phone: %v", err)
	}
	got, err := svc.LookupByPhone(ctx, "+242063333333")
	if err != nil || got.CustomerID != alice.CustomerID {
		t.Fatalf("lookup after update: %v (customer %s)", err, got.CustomerID)
	}

	// The old number is free for reuse.
	if _, err := svc.Register(ctx, RegisterInput{Name: "Carol", Phone: "+242061111111"}); err != nil {
		t.Fatalf("register with released phone: %v", err)
	}

	// Taking another customer's live number is rejected.
	if err := svc.UpdatePhone(ctx, alice.CustomerID, "+242062222222"); !errors.Is(err, ErrPhoneExists) {
		t.Fatalf("expected ErrPhoneExists, got %v", err)
	}

	if err := svc.UpdatePhone(ctx, alice.CustomerID, "no-plus"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for malformed phone, got %v", err)
	}
	if err := svc.UpdatePhone(ctx, "99999999999999", "+242064444444"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown customer, got %v", err)
	}
}

func TestWithdrawDebitsAndRecords(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c := register(t, svc, "Alice", "+242061234567", 10_000)

	balance, err := repo.Withdraw(ctx, c.CustomerID, 4_000)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if balance != 6_000 {
		t.Fatalf("expected balance 6000, got %d", balance)
	}

	txs, err := svc.Transactions(ctx, c.CustomerID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != 4_000 {
		t.Fatalf("expected one transaction of 4000, got %+v", txs)
	}
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c := register(t, svc, "Alice", "+242061234567", 10_000)

	if _, err := repo.Withdraw(ctx, c.CustomerID, 15_000); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	got, err := svc.GetByID(ctx, c.CustomerID)
	if err != nil {
		t.Fatalf("get after failed withdraw: %v", err)
	}
	if got.TotalAmount != 10_000 {
		t.Fatalf("balance changed on failed withdraw: %d", got.TotalAmount)
	}
	txs, _ := svc.Transactions(ctx, c.CustomerID)
	if len(txs) != 0 {
		t.Fatalf("failed withdraw recorded a transaction: %+v", txs)
	}
}

func TestWithdrawUnknownCustomer(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.Withdraw(context.Background(), "99999999999999", 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	c := register(t, svc, "Alice", "+242061234567", 10_000)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Withdraw(ctx, c.CustomerID, 6_000)
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, ErrInsufficientBalance):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if committed != 1 {
		t.Fatalf("expected exactly one committed withdrawal, got %d", committed)
	}

	got, err := svc.GetByID(ctx, c.CustomerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalAmount != 4_000 {
		t.Fatalf("expected balance 4000, got %d", got.TotalAmount)
	}
}
