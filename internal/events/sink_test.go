package events

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisSink_AppendsInOrder(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	sink := NewRedisSink(rdb, "")

	now := time.Unix(1_700_000_000, 0).UTC()
	evs := []Event{
		New(SubscriptionCreated, now, SubscriptionCreatedData{SubID: 1, Owner: common.HexToAddress("0x01")}),
		New(SubscriptionFunded, now, SubscriptionFundedData{SubID: 1, OldBalance: big.NewInt(0), NewBalance: big.NewInt(1000)}),
	}
	if err := sink.Publish(ctx, evs); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	raw, err := rdb.LRange(ctx, DefaultStreamKey, 0, -1).Result()
	if err != nil {
		t.Fatalf("LRANGE: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 records, got %d", len(raw))
	}

	var first struct {
		ID   string `json:"id"`
		Type Type   `json:"type"`
		Data struct {
			SubID uint64 `json:"sub_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Type != SubscriptionCreated || first.Data.SubID != 1 || first.ID == "" {
		t.Errorf("unexpected first record: %+v", first)
	}
}

func TestRedisSink_EmptyBatchIsNoop(t *testing.T) {
	rdb := newTestRedis(t)
	sink := NewRedisSink(rdb, "custom:events")
	if err := sink.Publish(context.Background(), nil); err != nil {
		t.Fatalf("Publish(nil): %v", err)
	}
	n, _ := rdb.Exists(context.Background(), "custom:events").Result()
	if n != 0 {
		t.Error("empty batch must not create the list")
	}
}

func TestMemorySink_OfType(t *testing.T) {
	var m MemorySink
	now := time.Now()
	_ = m.Publish(context.Background(), []Event{
		New(ConfigSet, now, ConfigSetData{}),
		New(ProvingKeyRegistered, now, ProvingKeyRegisteredData{}),
		New(ConfigSet, now, ConfigSetData{}),
	})
	if got := len(m.OfType(ConfigSet)); got != 2 {
		t.Errorf("OfType(ConfigSet): got %d want 2", got)
	}
}
