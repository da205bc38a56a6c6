package coordinator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

// RegisterProvingKey binds a provider public key to its payout identity.
// Registrations are permanent.
func (c *Coordinator) RegisterProvingKey(ctx context.Context, caller, operator common.Address, publicKey [2]*big.Int) (common.Hash, error) {
	keyHash := HashOfKey(publicKey)
	err := c.atomic(ctx, func(ctx context.Context, t *tx) error {
		if err := c.onlyAdmin(caller); err != nil {
			return err
		}
		if _, ok := t.st.keys[keyHash]; ok {
			return ErrKeyAlreadyRegistered
		}
		t.putKey(keyHash, operator)
		t.emit(events.ProvingKeyRegistered, events.ProvingKeyRegisteredData{KeyHash: keyHash, Operator: operator})
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	return keyHash, nil
}

// Operator returns the payout identity registered for keyHash.
func (c *Coordinator) Operator(ctx context.Context, keyHash common.Hash) (common.Address, bool) {
	var (
		op common.Address
		ok bool
	)
	c.view(ctx, func(st *state) { op, ok = st.keys[keyHash] })
	return op, ok
}

// ProvingKeys lists registered key hashes in registration order.
func (c *Coordinator) ProvingKeys(ctx context.Context) []common.Hash {
	var out []common.Hash
	c.view(ctx, func(st *state) { out = append(out, st.keyOrder...) })
	return out
}
