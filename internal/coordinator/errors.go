package coordinator

import (
	"errors"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/proof"
)

// Every failure aborts the enclosing operation with no partial mutation.
var (
	ErrOnlyAdmin            = errors.New("only admin")
	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrMustBeSubOwner       = errors.New("must be subscription owner")
	ErrMustBeRequestedOwner = errors.New("must be requested owner")
	ErrInvalidConsumer      = errors.New("invalid consumer")
	ErrTooManyConsumers     = errors.New("too many consumers")
	ErrInvalidAmount        = errors.New("invalid amount")

	ErrRequestBlockConfsTooLow  = errors.New("request block confirmations too low")
	ErrRequestBlockConfsTooHigh = errors.New("request block confirmations too high")
	ErrNumWordsTooBig           = errors.New("num words too big")
	ErrUnregisteredKeyHash      = errors.New("unregistered key hash")
	ErrKeyAlreadyRegistered     = errors.New("key already registered")
	ErrBlockSourceNotSynced     = errors.New("block source not synced")
	ErrNoSuchProvingKey         = errors.New("no such proving key")

	ErrInvalidProofLength         = proof.ErrInvalidLength
	ErrInvalidProofEncoding       = proof.ErrInvalidEncoding
	ErrNoCorrespondingRequest     = errors.New("no corresponding request")
	ErrIncorrectCommitment        = errors.New("incorrect commitment")
	ErrBlockHashNotInStore        = errors.New("block hash not in store")
	ErrInvalidProof               = errors.New("invalid proof")
	ErrInsufficientGasForConsumer = errors.New("insufficient gas for consumer")
	ErrOutOfGas                   = errors.New("out of gas")

	ErrInvalidFeedResponse = errors.New("invalid feed response")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPaymentTooLarge     = errors.New("payment too large")
	ErrTokenTransferFailed = errors.New("token transfer failed")
)
