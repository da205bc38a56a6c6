package coordinator

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	tUint256 = mustType("uint256")
	tUint64  = mustType("uint64")
	tUint32  = mustType("uint32")
	tAddress = mustType("address")
	tBytes32 = mustType("bytes32")

	keyArgs        = abi.Arguments{{Type: tUint256}, {Type: tUint256}}
	requestIDArgs  = abi.Arguments{{Type: tBytes32}, {Type: tAddress}, {Type: tUint64}}
	commitmentArgs = abi.Arguments{
		{Type: tUint256}, // requestId
		{Type: tUint64},  // blockNum
		{Type: tUint64},  // subId
		{Type: tUint32},  // callbackGasLimit
		{Type: tUint32},  // numWords
		{Type: tAddress}, // sender
	}
	wordArgs = abi.Arguments{{Type: tUint256}, {Type: tUint256}}
)

func mustType(s string) abi.Type {
	t, err := abi.NewType(s, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

func mustPack(args abi.Arguments, vals ...any) []byte {
	b, err := args.Pack(vals...)
	if err != nil {
		// all callers pass statically typed values
		panic(err)
	}
	return b
}

// HashOfKey is keccak256(abi.encode(uint256[2] publicKey)).
func HashOfKey(publicKey [2]*big.Int) common.Hash {
	return crypto.Keccak256Hash(mustPack(keyArgs, u256(publicKey[0]), u256(publicKey[1])))
}

// computeRequestID derives the identifier (and pre-seed) of a request.
func computeRequestID(keyHash common.Hash, requester common.Address, nonce uint64) common.Hash {
	return crypto.Keccak256Hash(mustPack(requestIDArgs, keyHash, requester, nonce))
}

func computeCommitment(requestID common.Hash, blockNum, subID uint64, callbackGasLimit, numWords uint32, sender common.Address) common.Hash {
	return crypto.Keccak256Hash(mustPack(commitmentArgs,
		requestID.Big(), blockNum, subID, callbackGasLimit, numWords, sender,
	))
}

// actualSeed mixes the block hash into the pre-seed: keccak256(preSeed ‖ blockHash).
func actualSeed(preSeed *big.Int, blockHash common.Hash) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256(common.BigToHash(preSeed).Bytes(), blockHash.Bytes()))
}

// ExpandWords derives n words from one verified randomness value:
// word[i] = keccak256(abi.encode(randomness, i)).
func ExpandWords(randomness *big.Int, n uint32) []*big.Int {
	words := make([]*big.Int, n)
	for i := uint32(0); i < n; i++ {
		h := crypto.Keccak256(mustPack(wordArgs, u256(randomness), new(big.Int).SetUint64(uint64(i))))
		words[i] = new(big.Int).SetBytes(h)
	}
	return words
}

func u256(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
