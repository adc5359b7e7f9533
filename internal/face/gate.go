package face

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/face-teller/face_teller/internal/customer"
)

// CustomerSource resolves customers for reference lookup. Implemented by the
// customer service and repositories.
type CustomerSource interface {
	GetByID(ctx context.Context, customerID string) (customer.Customer, error)
}

// Gate enforces the face-verification policy against enrolled references.
// Every failure path denies: absent or corrupt enrollment data, malformed
// probes and oracle errors never yield a match.
type Gate struct {
	customers CustomerSource
	matcher   Matcher
}

// NewGate constructs a verification gate.
func NewGate(customers CustomerSource, matcher Matcher) *Gate {
	return &Gate{customers: customers, matcher: matcher}
}

// Verify compares the captured probe against the customer's stored template.
func (g *Gate) Verify(ctx context.Context, customerID, probeEncoded string) (Decision, error) {
	cust, err := g.customers.GetByID(ctx, customerID)
	if err != nil {
		return Decision{}, err
	}
	if cust.FaceTemplate == "" {
		return Decision{}, ErrNoReference
	}

	reference, err := DecodeImage(cust.FaceTemplate)
	if err != nil {
		// Corrupt enrollment data is treated the same as absent data.
		return Decision{}, ErrNoReference
	}

	probe, err := DecodeImage(probeEncoded)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	decision, err := g.matcher.Compare(ctx, reference, probe)
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

// DecodeImage decodes a base64 image, tolerating a data-URL prefix as sent by
// browser capture widgets ("data:image/png;base64,...").
func DecodeImage(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty image")
	}
	if idx := strings.IndexByte(encoded, ','); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}
