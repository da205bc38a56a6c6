package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/proof"
)

// FulfillRandomWords verifies a provider proof against its pending request,
// delivers the expanded words to the consumer and settles payment.
//
// The pending commitment is removed before any external call, so a second
// submission of the same proof (including one made from inside the consumer
// callback) fails with ErrNoCorrespondingRequest. A failing consumer callback
// is recorded in the result and does not fail the fulfillment.
func (c *Coordinator) FulfillRandomWords(ctx context.Context, f Fulfillment) (*FulfillmentResult, error) {
	meter := NewMeter(f.GasLimit)
	startGas := meter.Remaining()

	var res *FulfillmentResult
	err := c.atomic(ctx, func(ctx context.Context, t *tx) error {
		if err := meter.Charge(GasProofDecode); err != nil {
			return err
		}
		p, err := proof.Decode(f.Proof)
		if err != nil {
			return err
		}

		if err := meter.Charge(GasKeyLookup); err != nil {
			return err
		}
		keyHash := HashOfKey(p.PublicKey)
		operator, ok := t.st.keys[keyHash]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoSuchProvingKey, keyHash.Hex())
		}

		requestID := p.RequestID()
		stored, ok := t.st.commitments[requestID]
		if !ok {
			return ErrNoCorrespondingRequest
		}
		if stored != computeCommitment(requestID, p.BlockNum, p.SubID, p.CallbackGasLimit, p.NumWords, p.Sender) {
			return ErrIncorrectCommitment
		}
		t.deleteCommitment(requestID)

		blockHash, err := c.resolveBlockHash(ctx, p.BlockNum, meter)
		if err != nil {
			return err
		}
		seed := actualSeed(p.PreSeed, blockHash)

		if err := meter.Charge(GasVerifyProof); err != nil {
			return err
		}
		randomness, err := c.verifier.Verify(ctx, f.Proof[:proof.Length], seed)
		if err != nil {
			return errors.Join(ErrInvalidProof, err)
		}

		if err := meter.Charge(GasPerWord * uint64(p.NumWords)); err != nil {
			return err
		}
		words := ExpandWords(randomness, p.NumWords)

		if meter.Remaining() < uint64(p.CallbackGasLimit) {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientGasForConsumer,
				meter.Remaining(), p.CallbackGasLimit)
		}
		success := c.callConsumer(ctx, t, p, requestID, words, meter)

		if err := meter.Charge(GasPaymentCalc); err != nil {
			return err
		}
		payment, err := c.calculatePayment(ctx, t.st.cfg, startGas, meter, f.GasPrice)
		if err != nil {
			return err
		}
		sub, ok := t.st.subs[p.SubID]
		if !ok || sub.Balance.Cmp(payment) < 0 {
			return fmt.Errorf("%w: subscription %d cannot cover %s", ErrInsufficientBalance, p.SubID, payment)
		}
		next := sub.clone()
		next.Balance.Sub(next.Balance, payment)
		t.putSub(next)
		earned := new(big.Int).Set(payment)
		if prev, ok := t.st.withdrawable[operator]; ok {
			earned.Add(earned, prev)
		}
		t.setWithdrawable(operator, earned)

		t.emit(events.RandomWordsFulfilled, events.RandomWordsFulfilledData{
			RequestID: requestID,
			Outputs:   words,
			Payment:   new(big.Int).Set(payment),
			Success:   success,
		})
		res = &FulfillmentResult{
			RequestID: requestID,
			Words:     words,
			Success:   success,
			Payment:   payment,
			Operator:  operator,
			GasUsed:   meter.Used(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// resolveBlockHash consults the native recent-block window first and the
// archive second.
func (c *Coordinator) resolveBlockHash(ctx context.Context, height uint64, meter *Meter) (common.Hash, error) {
	if h, ok := c.blocks.RecentBlockHash(height); ok {
		return h, nil
	}
	if c.archive != nil {
		if err := meter.Charge(GasArchiveRead); err != nil {
			return common.Hash{}, err
		}
		h, ok, err := c.archive.BlockHash(ctx, height)
		if err != nil {
			return common.Hash{}, errors.Join(fmt.Errorf("%w: height %d", ErrBlockHashNotInStore, height), err)
		}
		if ok {
			return h, nil
		}
	}
	return common.Hash{}, fmt.Errorf("%w: height %d", ErrBlockHashNotInStore, height)
}

// callConsumer runs the consumer callback behind a savepoint. Any failure rolls
// back whatever the callback did to the ledger and is reported as success=false.
func (c *Coordinator) callConsumer(ctx context.Context, t *tx, p *proof.Proof, requestID common.Hash, words []*big.Int, meter *Meter) bool {
	sp := t.savepoint()
	limit := uint64(p.CallbackGasLimit)

	gasUsed, err := c.invokeCallback(ctx, p.Sender, p.CallbackGasLimit, requestID, words)
	if gasUsed > limit {
		if err == nil {
			err = fmt.Errorf("%w: callback used %d of %d", ErrOutOfGas, gasUsed, limit)
		}
		gasUsed = limit
	}
	if err != nil {
		t.rollback(sp)
		c.log.Warn("consumer callback failed",
			zap.String("request_id", requestID.Hex()),
			zap.String("consumer", p.Sender.Hex()),
			zap.Error(err),
		)
	}
	// remaining >= limit was checked before the call
	_ = meter.Charge(gasUsed)
	return err == nil
}

func (c *Coordinator) invokeCallback(ctx context.Context, consumer common.Address, gasLimit uint32, requestID common.Hash, words []*big.Int) (gasUsed uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			gasUsed = uint64(gasLimit)
			err = fmt.Errorf("consumer callback panic: %v", r)
		}
	}()
	return c.callbacks.Invoke(ctx, consumer, gasLimit, requestID, words)
}
