package face

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/face-teller/face_teller/internal/customer"
)

type sourceStub struct {
	customers map[string]customer.Customer
}

func (s sourceStub) GetByID(_ context.Context, customerID string) (customer.Customer, error) {
	c, ok := s.customers[customerID]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

type failingMatcher struct{}

func (failingMatcher) Compare(context.Context, []byte, []byte) (Decision, error) {
	return Decision{}, fmt.Errorf("%w: connection refused", ErrOracle)
}

func encode(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func newGateFixture(template string, matcher Matcher) *Gate {
	source := sourceStub{customers: map[string]customer.Customer{
		"10000000000001": {CustomerID: "10000000000001", FaceTemplate: template},
	}}
	return NewGate(source, matcher)
}

func TestVerifyMatch(t *testing.T) {
	gate := newGateFixture(encode("enrolled-face"), StaticMatcher{})

	decision, err := gate.Verify(context.Background(), "10000000000001", encode("enrolled-face"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !decision.Matched {
		t.Fatal("expected a match")
	}
}

func TestVerifyMismatch(t *testing.T) {
	gate := newGateFixture(encode("enrolled-face"), StaticMatcher{})

	decision, err := gate.Verify(context.Background(), "10000000000001", encode("someone-else"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if decision.Matched {
		t.Fatal("expected a mismatch")
	}
}

func TestVerifyDataURLProbe(t *testing.T) {
	gate := newGateFixture(encode("enrolled-face"), StaticMatcher{})

	probe := "data:image/png;base64," + encode("enrolled-face")
	decision, err := gate.Verify(context.Background(), "10000000000001", probe)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !decision.Matched {
		t.Fatal("expected a match through the data-URL prefix")
	}
}

func TestVerifyNoEnrollment(t *testing.T) {
	gate := newGateFixture("", StaticMatcher{})

	if _, err := gate.Verify(context.Background(), "10000000000001", encode("probe")); !errors.Is(err, ErrNoReference) {
		t.Fatalf("expected ErrNoReference, got %v", err)
	}
}

func TestVerifyCorruptEnrollment(t *testing.T) {
	gate := newGateFixture("%%%not-base64%%%", StaticMatcher{})

	if _, err := gate.Verify(context.Background(), "10000000000001", encode("probe")); !errors.Is(err, ErrNoReference) {
		t.Fatalf("expected ErrNoReference for corrupt template, got %v", err)
	}
}

func TestVerifyMalformedProbe(t *testing.T) {
	gate := newGateFixture(encode("enrolled-face"), StaticMatcher{})

	if _, err := gate.Verify(context.Background(), "10000000000001", "%%%not-base64%%%"); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestVerifyOracleFailureDenies(t *testing.T) {
	gate := newGateFixture(encode("enrolled-face"), failingMatcher{})

	decision, err := gate.Verify(context.Background(), "10000000000001", encode("enrolled-face"))
	if !errors.Is(err, ErrOracle) {
		t.Fatalf("expected ErrOracle, got %v", err)
	}
	if decision.Matched {
		t.Fatal("oracle failure must never yield a match")
	}
}

func TestVerifyUnknownCustomer(t *testing.T) {
	gate := newGateFixture(encode("enrolled-face"), StaticMatcher{})

	if _, err := gate.Verify(context.Background(), "99999999999999", encode("probe")); !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeImage(t *testing.T) {
	raw, err := DecodeImage("data:image/jpeg;base64," + encode("pixels"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw) != "pixels" {
		t.Fatalf("decoded %q, want %q", raw, "pixels")
	}

	if _, err := DecodeImage(""); err == nil {
		t.Fatal("expected error for empty image")
	}
}
