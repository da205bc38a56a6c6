package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

func TestRequest_NonceIncrementsAndIDsDiffer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.fundedSub(t, 0, testConsumerA)

	first := h.request(t, subID, testConsumerA, 1)
	second := h.request(t, subID, testConsumerA, 1)
	if first == second {
		t.Fatal("request IDs must be unique")
	}
	if n := h.c.Nonce(ctx, h.keyHash, testConsumerA); n != 2 {
		t.Errorf("nonce: got %d want 2", n)
	}
	if want := computeRequestID(h.keyHash, testConsumerA, 1); first != want {
		t.Errorf("first id: got %s want %s", first.Hex(), want.Hex())
	}
}

func TestRequest_StoresCommitmentAtCurrentHeight(t *testing.T) {
	h := newHarness(t)
	subID := h.fundedSub(t, 0, testConsumerA)
	reqID := h.request(t, subID, testConsumerA, 4)

	got, ok := h.c.GetCommitment(context.Background(), reqID)
	if !ok {
		t.Fatal("commitment missing")
	}
	want := computeCommitment(reqID, testRequestHeight, subID, testCallbackGas, 4, testConsumerA)
	if got != want {
		t.Errorf("commitment: got %s want %s", got.Hex(), want.Hex())
	}

	evs := h.sink.OfType(events.RandomWordsRequested)
	if len(evs) != 1 {
		t.Fatalf("expected 1 requested event, got %d", len(evs))
	}
	data := evs[0].Data.(events.RandomWordsRequestedData)
	if data.RequestID != reqID || data.PreSeed.Cmp(reqID.Big()) != 0 || data.BlockNum != testRequestHeight {
		t.Errorf("unexpected event: %+v", data)
	}
}

func TestRequest_FailsUntilBlockSourceSynced(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.fundedSub(t, 0, testConsumerA)
	h.blocks.unsynced = true

	_, err := h.c.RequestRandomWords(ctx, testConsumerA, Request{
		KeyHash:          h.keyHash,
		SubID:            subID,
		MinConfirmations: 3,
		CallbackGasLimit: testCallbackGas,
		NumWords:         1,
	})
	if !errors.Is(err, ErrBlockSourceNotSynced) {
		t.Fatalf("expected ErrBlockSourceNotSynced, got %v", err)
	}
	if n := h.c.Nonce(ctx, h.keyHash, testConsumerA); n != 0 {
		t.Errorf("nonce must not advance, got %d", n)
	}

	h.blocks.unsynced = false
	h.request(t, subID, testConsumerA, 1)
}

func TestRequest_ConfsTooLowChangesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.fundedSub(t, 0, testConsumerA)
	before := len(h.sink.Events())

	_, err := h.c.RequestRandomWords(ctx, testConsumerA, Request{
		KeyHash:          h.keyHash,
		SubID:            subID,
		MinConfirmations: 2,
		CallbackGasLimit: testCallbackGas,
		NumWords:         1,
	})
	if !errors.Is(err, ErrRequestBlockConfsTooLow) {
		t.Fatalf("expected ErrRequestBlockConfsTooLow, got %v", err)
	}
	if n := h.c.Nonce(ctx, h.keyHash, testConsumerA); n != 0 {
		t.Errorf("nonce must not advance, got %d", n)
	}
	if len(h.sink.Events()) != before {
		t.Error("no event on failure")
	}
}

func TestRequest_Validation(t *testing.T) {
	h := newHarness(t)
	subID := h.fundedSub(t, 0, testConsumerA)
	ok := Request{KeyHash: h.keyHash, SubID: subID, MinConfirmations: 3, CallbackGasLimit: testCallbackGas, NumWords: 1}

	cases := []struct {
		name   string
		caller common.Address
		mutate func(*Request)
		want   error
	}{
		{"unknown sub", testConsumerA, func(r *Request) { r.SubID = 999 }, ErrInvalidSubscription},
		{"confs too high", testConsumerA, func(r *Request) { r.MinConfirmations = MaxRequestConfirmations + 1 }, ErrRequestBlockConfsTooHigh},
		{"too many words", testConsumerA, func(r *Request) { r.NumWords = MaxNumWords + 1 }, ErrNumWordsTooBig},
		{"not a consumer", testConsumerB, func(*Request) {}, ErrInvalidConsumer},
		{"unknown key", testConsumerA, func(r *Request) { r.KeyHash = common.HexToHash("0x01") }, ErrUnregisteredKeyHash},
		// subscription is checked before confirmations
		{"unknown sub wins", testConsumerA, func(r *Request) { r.SubID = 999; r.MinConfirmations = 0 }, ErrInvalidSubscription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := ok
			tc.mutate(&req)
			_, err := h.c.RequestRandomWords(context.Background(), tc.caller, req)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRequest_MaxWordsAccepted(t *testing.T) {
	h := newHarness(t)
	subID := h.fundedSub(t, 0, testConsumerA)
	h.request(t, subID, testConsumerA, MaxNumWords)
}
