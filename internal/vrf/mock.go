// Package vrf holds the proof verifier adapters the coordinator can be wired
// to: a remote EC-VRF verification service and a structural checker for
// development setups without one.
package vrf

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/proof"
)

var ErrNotOnCurve = errors.New("point not on secp256k1")

// Mock checks that the public key and gamma are secp256k1 points and derives
// randomness as keccak256(gamma.x ‖ gamma.y ‖ seed). It does NOT verify the
// EC-VRF equations and must never back a production deployment.
type Mock struct{}

func (Mock) Verify(_ context.Context, raw []byte, seed *big.Int) (*big.Int, error) {
	if len(raw) != proof.Length {
		return nil, fmt.Errorf("mock verifier: %w: got %d bytes", proof.ErrInvalidLength, len(raw))
	}
	word := func(i int) *big.Int { return new(big.Int).SetBytes(raw[i*proof.WordSize : (i+1)*proof.WordSize]) }
	pkx, pky := word(0), word(1)
	gx, gy := word(2), word(3)

	curve := crypto.S256()
	if !curve.IsOnCurve(pkx, pky) {
		return nil, fmt.Errorf("public key: %w", ErrNotOnCurve)
	}
	if !curve.IsOnCurve(gx, gy) {
		return nil, fmt.Errorf("gamma: %w", ErrNotOnCurve)
	}
	return Output(gx, gy, seed), nil
}

// Output is the randomness Mock derives from gamma and the seed.
func Output(gx, gy, seed *big.Int) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256(
		common.BigToHash(gx).Bytes(),
		common.BigToHash(gy).Bytes(),
		common.BigToHash(seed).Bytes(),
	))
}
