package otp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/face-teller/face_teller/internal/challenge"
	"github.com/face-teller/face_teller/internal/customer"
	"github.com/face-teller/face_teller/internal/logging"
	"github.com/face-teller/face_teller/internal/sms"
)

var codeInBody = regexp.MustCompile(`\d{6}`)

type captureSender struct {
	to   string
	body string
	err  error
}

func (s *captureSender) Send(_ context.Context, to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.to = to
	s.body = body
	return nil
}

func newIssuerFixture(t *testing.T, sender sms.Sender) (*Issuer, challenge.Store, customer.Customer) {
	t.Helper()
	customers := customer.NewService(customer.NewMemoryRepository())
	cust, err := customers.Register(context.Background(), customer.RegisterInput{
		Name:  "Alice",
		Phone: "+242061234567",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	challenges := challenge.NewMemoryStore()
	issuer := NewIssuer(customers, challenges, sender, 5*time.Minute, logging.Discard())
	return issuer, challenges, cust
}

func TestRequestDispatchesCode(t *testing.T) {
	sender := &captureSender{}
	issuer, challenges, cust := newIssuerFixture(t, sender)
	ctx := context.Background()

	if err := issuer.Request(ctx, cust.CustomerID, challenge.PurposeWithdraw); err != nil {
		t.Fatalf("request: %v", err)
	}

	if sender.to != cust.Phone {
		t.Fatalf("dispatched to %s, want %s", sender.to, cust.Phone)
	}
	if !strings.Contains(sender.body, "withdrawal") {
		t.Fatalf("unexpected message body: %q", sender.body)
	}

	code := codeInBody.FindString(sender.body)
	if code == "" {
		t.Fatalf("no code in message body: %q", sender.body)
	}
	if err := challenges.VerifyFor(ctx, cust.CustomerID, challenge.PurposeWithdraw, code); err != nil {
		t.Fatalf("verify dispatched code: %v", err)
	}
}

func TestRequestPhoneUpdateMessage(t *testing.T) {
	sender := &captureSender{}
	issuer, _, cust := newIssuerFixture(t, sender)

	if err := issuer.Request(context.Background(), cust.CustomerID, challenge.PurposeUpdatePhone); err != nil {
		t.Fatalf("request: %v", err)
	}
	if !strings.Contains(sender.body, "mobile number") {
		t.Fatalf("unexpected message body: %q", sender.body)
	}
}

func TestRequestRevokesChallengeOnTransportFailure(t *testing.T) {
	sender := &captureSender{err: fmt.Errorf("%w: provider 500", sms.ErrTransport)}
	issuer, challenges, cust := newIssuerFixture(t, sender)
	ctx := context.Background()

	err := issuer.Request(ctx, cust.CustomerID, challenge.PurposeWithdraw)
	if !errors.Is(err, sms.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	// The challenge must not outlive the failed dispatch: any guess lands on
	// ErrNotFound, never ErrMismatch.
	if err := challenges.VerifyFor(ctx, cust.CustomerID, challenge.PurposeWithdraw, "000000"); err != challenge.ErrNotFound {
		t.Fatalf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestRequestUnknownCustomer(t *testing.T) {
	issuer, _, _ := newIssuerFixture(t, &captureSender{})

	err := issuer.Request(context.Background(), "99999999999999", challenge.PurposeWithdraw)
	if !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
