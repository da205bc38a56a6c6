package coordinator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

// RequestRandomWords records a commitment for a new randomness request made by
// caller and returns its identifier, which doubles as the proof pre-seed.
func (c *Coordinator) RequestRandomWords(ctx context.Context, caller common.Address, req Request) (common.Hash, error) {
	var requestID common.Hash
	err := c.atomic(ctx, func(ctx context.Context, t *tx) error {
		sub, ok := t.st.subs[req.SubID]
		if !ok {
			return ErrInvalidSubscription
		}
		if req.MinConfirmations < t.st.cfg.MinimumRequestConfirmations {
			return fmt.Errorf("%w: have %d, want at least %d", ErrRequestBlockConfsTooLow,
				req.MinConfirmations, t.st.cfg.MinimumRequestConfirmations)
		}
		if req.MinConfirmations > MaxRequestConfirmations {
			return fmt.Errorf("%w: have %d, max %d", ErrRequestBlockConfsTooHigh,
				req.MinConfirmations, MaxRequestConfirmations)
		}
		if req.NumWords > MaxNumWords {
			return fmt.Errorf("%w: have %d, max %d", ErrNumWordsTooBig, req.NumWords, MaxNumWords)
		}
		if !sub.hasConsumer(caller) {
			return ErrInvalidConsumer
		}
		if _, ok := t.st.keys[req.KeyHash]; !ok {
			return ErrUnregisteredKeyHash
		}

		nk := nonceKey{keyHash: req.KeyHash, requester: caller}
		nonce := t.st.nonces[nk] + 1
		requestID = computeRequestID(req.KeyHash, caller, nonce)
		height, synced := c.blocks.Height()
		if !synced {
			return ErrBlockSourceNotSynced
		}

		t.putCommitment(requestID, computeCommitment(requestID, height, req.SubID, req.CallbackGasLimit, req.NumWords, caller))
		t.setNonce(nk, nonce)
		t.emit(events.RandomWordsRequested, events.RandomWordsRequestedData{
			KeyHash:          req.KeyHash,
			RequestID:        requestID,
			PreSeed:          requestID.Big(),
			SubID:            req.SubID,
			MinConfirmations: req.MinConfirmations,
			CallbackGasLimit: req.CallbackGasLimit,
			NumWords:         req.NumWords,
			Sender:           caller,
			BlockNum:         height,
		})
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	return requestID, nil
}
