package vrf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrRejected is returned when the verifier service judged the proof invalid.
var ErrRejected = errors.New("proof rejected")

type verifyRequest struct {
	Proof hexutil.Bytes `json:"proof"`
	Seed  *hexutil.Big  `json:"seed"`
}

type verifyResponse struct {
	Valid      bool         `json:"valid"`
	Randomness *hexutil.Big `json:"randomness"`
	Reason     string       `json:"reason"`
}

// Remote delegates EC-VRF verification to an HTTP service. It satisfies
// coordinator.ProofVerifier.
type Remote struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewRemote(baseURL, apiKey string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (r *Remote) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return r.http.Do(req)
}

// Verify posts the proof and the actual seed to /verify and returns the
// verified randomness.
func (r *Remote) Verify(ctx context.Context, proof []byte, seed *big.Int) (*big.Int, error) {
	resp, err := r.do(ctx, http.MethodPost, "/verify", verifyRequest{
		Proof: proof,
		Seed:  (*hexutil.Big)(seed),
	})
	if err != nil {
		return nil, fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var out verifyResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Reason)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("verifier: status %d", resp.StatusCode)
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("verifier: decode response: %w", err)
	}
	if !out.Valid {
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Reason)
	}
	if out.Randomness == nil {
		return nil, errors.New("verifier: valid response without randomness")
	}
	return out.Randomness.ToInt(), nil
}

// BaseURL returns the configured verifier endpoint.
func (r *Remote) BaseURL() string { return r.baseURL }
