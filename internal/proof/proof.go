// Package proof decodes and encodes the fixed-width fulfillment payload a
// provider submits to the coordinator.
//
// Layout (32-byte big-endian words):
//
//	0  pk.x            7  uWitness (address, right-aligned)
//	1  pk.y            8  cGammaWitness.x
//	2  gamma.x         9  cGammaWitness.y
//	3  gamma.y        10  sHashWitness.x
//	4  c              11  sHashWitness.y
//	5  s              12  zInv
//	6  preSeed
//
// followed by the request tuple:
//
//	13  blockNum   14  subId   15  callbackGasLimit   16  numWords   17  sender
//
// The payload length is the byte-slice length; anything other than
// EncodedLength bytes is rejected.
package proof

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	WordSize = 32
	// ProofWords is the size of the VRF proof proper, in words.
	ProofWords = 13
	// RequestWords is the number of trailing request-commitment words.
	RequestWords = 5
	// Length is the byte length of the VRF proof without the request tuple.
	Length = ProofWords * WordSize
	// EncodedLength is the exact size of a valid fulfillment payload.
	EncodedLength = Length + RequestWords*WordSize
)

var (
	ErrInvalidLength   = errors.New("invalid proof length")
	ErrInvalidEncoding = errors.New("invalid proof encoding")
)

// word offsets
const (
	wPKX = iota
	wPKY
	wGammaX
	wGammaY
	wC
	wS
	wPreSeed
	wUWitness
	wCGammaX
	wCGammaY
	wSHashX
	wSHashY
	wZInv
	wBlockNum
	wSubID
	wCallbackGasLimit
	wNumWords
	wSender
)

// Proof is a decoded fulfillment payload.
type Proof struct {
	PublicKey     [2]*big.Int
	Gamma         [2]*big.Int
	C             *big.Int
	S             *big.Int
	PreSeed       *big.Int
	UWitness      common.Address
	CGammaWitness [2]*big.Int
	SHashWitness  [2]*big.Int
	ZInv          *big.Int

	BlockNum         uint64
	SubID            uint64
	CallbackGasLimit uint32
	NumWords         uint32
	Sender           common.Address
}

// RequestID is the pre-seed as a 32-byte identifier.
func (p *Proof) RequestID() common.Hash {
	return common.BigToHash(p.PreSeed)
}

// Decode validates the total length once and then extracts fields by position.
func Decode(b []byte) (*Proof, error) {
	if len(b) != EncodedLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(b), EncodedLength)
	}
	p := &Proof{
		PublicKey:     [2]*big.Int{uintAt(b, wPKX), uintAt(b, wPKY)},
		Gamma:         [2]*big.Int{uintAt(b, wGammaX), uintAt(b, wGammaY)},
		C:             uintAt(b, wC),
		S:             uintAt(b, wS),
		PreSeed:       uintAt(b, wPreSeed),
		CGammaWitness: [2]*big.Int{uintAt(b, wCGammaX), uintAt(b, wCGammaY)},
		SHashWitness:  [2]*big.Int{uintAt(b, wSHashX), uintAt(b, wSHashY)},
		ZInv:          uintAt(b, wZInv),
	}

	var err error
	if p.UWitness, err = addressAt(b, wUWitness); err != nil {
		return nil, err
	}
	if p.BlockNum, err = uint64At(b, wBlockNum); err != nil {
		return nil, err
	}
	if p.SubID, err = uint64At(b, wSubID); err != nil {
		return nil, err
	}
	gasLimit, err := uint64At(b, wCallbackGasLimit)
	if err != nil {
		return nil, err
	}
	numWords, err := uint64At(b, wNumWords)
	if err != nil {
		return nil, err
	}
	if gasLimit > 0xffffffff || numWords > 0xffffffff {
		return nil, fmt.Errorf("%w: callbackGasLimit/numWords exceed uint32", ErrInvalidEncoding)
	}
	p.CallbackGasLimit = uint32(gasLimit)
	p.NumWords = uint32(numWords)
	if p.Sender, err = addressAt(b, wSender); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode is the inverse of Decode. Nil big.Int fields encode as zero.
func Encode(p *Proof) ([]byte, error) {
	b := make([]byte, EncodedLength)
	ints := []struct {
		w int
		v *big.Int
	}{
		{wPKX, p.PublicKey[0]}, {wPKY, p.PublicKey[1]},
		{wGammaX, p.Gamma[0]}, {wGammaY, p.Gamma[1]},
		{wC, p.C}, {wS, p.S}, {wPreSeed, p.PreSeed},
		{wCGammaX, p.CGammaWitness[0]}, {wCGammaY, p.CGammaWitness[1]},
		{wSHashX, p.SHashWitness[0]}, {wSHashY, p.SHashWitness[1]},
		{wZInv, p.ZInv},
	}
	for _, f := range ints {
		if f.v == nil {
			continue
		}
		if f.v.Sign() < 0 || f.v.BitLen() > 256 {
			return nil, fmt.Errorf("%w: word %d out of uint256 range", ErrInvalidEncoding, f.w)
		}
		f.v.FillBytes(word(b, f.w))
	}
	copy(word(b, wUWitness)[12:], p.UWitness.Bytes())
	new(big.Int).SetUint64(p.BlockNum).FillBytes(word(b, wBlockNum))
	new(big.Int).SetUint64(p.SubID).FillBytes(word(b, wSubID))
	new(big.Int).SetUint64(uint64(p.CallbackGasLimit)).FillBytes(word(b, wCallbackGasLimit))
	new(big.Int).SetUint64(uint64(p.NumWords)).FillBytes(word(b, wNumWords))
	copy(word(b, wSender)[12:], p.Sender.Bytes())
	return b, nil
}

func word(b []byte, i int) []byte {
	return b[i*WordSize : (i+1)*WordSize]
}

func uintAt(b []byte, i int) *big.Int {
	return new(big.Int).SetBytes(word(b, i))
}

func uint64At(b []byte, i int) (uint64, error) {
	v := uintAt(b, i)
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: word %d exceeds uint64", ErrInvalidEncoding, i)
	}
	return v.Uint64(), nil
}

func addressAt(b []byte, i int) (common.Address, error) {
	w := word(b, i)
	for _, c := range w[:12] {
		if c != 0 {
			return common.Address{}, fmt.Errorf("%w: word %d is not an address", ErrInvalidEncoding, i)
		}
	}
	return common.BytesToAddress(w[12:]), nil
}
