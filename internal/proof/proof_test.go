package proof

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func sampleProof() *Proof {
	return &Proof{
		PublicKey:        [2]*big.Int{big.NewInt(11), big.NewInt(12)},
		Gamma:            [2]*big.Int{big.NewInt(21), big.NewInt(22)},
		C:                big.NewInt(3),
		S:                big.NewInt(4),
		PreSeed:          new(big.Int).Lsh(big.NewInt(1), 200),
		UWitness:         common.HexToAddress("0x5555555555555555555555555555555555555555"),
		CGammaWitness:    [2]*big.Int{big.NewInt(81), big.NewInt(82)},
		SHashWitness:     [2]*big.Int{big.NewInt(91), big.NewInt(92)},
		ZInv:             big.NewInt(7),
		BlockNum:         1234,
		SubID:            9,
		CallbackGasLimit: 200_000,
		NumWords:         2,
		Sender:           common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
	}
}

func TestEncodeDecode_FieldPositions(t *testing.T) {
	b, err := Encode(sampleProof())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(b) != EncodedLength {
		t.Fatalf("encoded length: got %d want %d", len(b), EncodedLength)
	}
	// preSeed lives at word 6, blockNum at word 13
	if got := new(big.Int).SetBytes(b[6*32 : 7*32]); got.Cmp(sampleProof().PreSeed) != 0 {
		t.Errorf("preSeed word: got %s", got)
	}
	if got := new(big.Int).SetBytes(b[13*32 : 14*32]); got.Uint64() != 1234 {
		t.Errorf("blockNum word: got %s", got)
	}

	p, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := sampleProof()
	if p.PublicKey[0].Cmp(want.PublicKey[0]) != 0 || p.PublicKey[1].Cmp(want.PublicKey[1]) != 0 {
		t.Errorf("public key mismatch")
	}
	if p.BlockNum != want.BlockNum || p.SubID != want.SubID {
		t.Errorf("blockNum/subID: got %d/%d", p.BlockNum, p.SubID)
	}
	if p.CallbackGasLimit != want.CallbackGasLimit || p.NumWords != want.NumWords {
		t.Errorf("gas/numWords: got %d/%d", p.CallbackGasLimit, p.NumWords)
	}
	if p.Sender != want.Sender || p.UWitness != want.UWitness {
		t.Errorf("addresses: got %s/%s", p.Sender.Hex(), p.UWitness.Hex())
	}
	if p.RequestID() != common.BigToHash(want.PreSeed) {
		t.Errorf("request id mismatch")
	}
}

func TestDecode_RejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, Length, EncodedLength - 1, EncodedLength + 32} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("len %d: expected ErrInvalidLength, got %v", n, err)
		}
	}
}

func TestDecode_RejectsOverflowingTrailingWords(t *testing.T) {
	b, _ := Encode(sampleProof())
	// set a high byte in the numWords word
	b[16*32] = 1
	if _, err := Decode(b); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}

	b, _ = Encode(sampleProof())
	// dirty the padding of the sender word
	b[17*32] = 0xff
	if _, err := Decode(b); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding for sender padding, got %v", err)
	}
}

func TestEncode_RejectsNegative(t *testing.T) {
	p := sampleProof()
	p.C = big.NewInt(-1)
	if _, err := Encode(p); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}
