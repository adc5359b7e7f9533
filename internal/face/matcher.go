package face

import (
	"bytes"
	"context"
	"errors"
)

var (
	// ErrNoReference indicates the customer has no usable enrollment data.
	ErrNoReference = errors.New("no enrolled face reference")

	// ErrDecode indicates the submitted probe image is malformed.
	ErrDecode = errors.New("malformed face image")

	// ErrOracle indicates the similarity oracle failed or was unreachable.
	ErrOracle = errors.New("face oracle failure")
)

// Decision is the outcome of a face comparison. Score semantics depend on the
// matcher; for the HTTP oracle it is the reported distance.
type Decision struct {
	Matched bool
	Score   float64
}

// Matcher compares a stored reference against a freshly captured probe. It is
// a capability interface so the verification gate stays testable with a
// deterministic stub instead of a real model.
type Matcher interface {
	Compare(ctx context.Context, reference, probe []byte) (Decision, error)
}

// StaticMatcher is a deterministic stub: images match iff the bytes are
// identical. Used in development and tests.
type StaticMatcher struct{}

// Compare reports a match on byte equality.
func (StaticMatcher) Compare(_ context.Context, reference, probe []byte) (Decision, error) {
	if bytes.Equal(reference, probe) {
		return Decision{Matched: true, Score: 0}, nil
	}
	return Decision{Matched: false, Score: 1}, nil
}
