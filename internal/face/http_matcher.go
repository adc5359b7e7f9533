package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPMatcher delegates the similarity decision to an external oracle over a
// DeepFace-style verify endpoint.
type HTTPMatcher struct {
	endpoint  string
	threshold float64
	client    *http.Client
}

// NewHTTPMatcher builds a matcher with a bounded request timeout.
func NewHTTPMatcher(endpoint string, threshold float64, timeout time.Duration) *HTTPMatcher {
	return &HTTPMatcher{
		endpoint:  endpoint,
		threshold: threshold,
		client:    &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	Img1 string `json:"img1"`
	Img2 string `json:"img2"`
}

type verifyResponse struct {
	Verified bool    `json:"verified"`
	Distance float64 `json:"distance"`
}

// Compare posts both images to the oracle. Transport failures, non-2xx
// replies and undecodable responses all surface as ErrOracle; the gate treats
// every error as a denial.
func (m *HTTPMatcher) Compare(ctx context.Context, reference, probe []byte) (Decision, error) {
	payload, err := json.Marshal(verifyRequest{
		Img1: base64.StdEncoding.EncodeToString(reference),
		Img2: base64.StdEncoding.EncodeToString(probe),
	})
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Decision{}, fmt.Errorf("%w: oracle returned %s", ErrOracle, resp.Status)
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Decision{}, fmt.Errorf("%w: decode response: %v", ErrOracle, err)
	}

	matched := out.Verified
	if m.threshold > 0 {
		matched = matched && out.Distance <= m.threshold
	}
	return Decision{Matched: matched, Score: out.Distance}, nil
}
