// Package auth authenticates API callers by EIP-191 personal_sign signatures
// over a short-lived JSON envelope. The recovered address is the caller the
// coordinator sees: subscription owner, consumer, operator or admin.
package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrSignatureLength = errors.New("signature must be 65 bytes")

// HashMessage is keccak256("\x19Ethereum Signed Message:\n" ‖ len ‖ msg).
func HashMessage(msg []byte) []byte {
	return accounts.TextHash(msg)
}

// Sign produces a personal_sign signature with V in {27,28}.
func Sign(msg []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(HashMessage(msg), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the address that signed msg. V may be 0/1 or 27/28.
func Recover(msg, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrSignatureLength
	}
	normalized := common.CopyBytes(sig)
	if v := normalized[crypto.RecoveryIDOffset]; v >= 27 {
		normalized[crypto.RecoveryIDOffset] = v - 27
	}
	pub, err := crypto.SigToPub(HashMessage(msg), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("ecrecover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
