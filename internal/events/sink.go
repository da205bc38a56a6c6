package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultStreamKey is the Redis list indexers consume audit records from.
const DefaultStreamKey = "vrf:events"

// RedisSink appends JSON-encoded events to a Redis list.
type RedisSink struct {
	rdb *redis.Client
	key string
}

func NewRedisSink(rdb *redis.Client, key string) *RedisSink {
	if key == "" {
		key = DefaultStreamKey
	}
	return &RedisSink{rdb: rdb, key: key}
}

// Publish pushes the batch in a single pipeline so an operation's events land
// contiguously.
func (s *RedisSink) Publish(ctx context.Context, evs []Event) error {
	if len(evs) == 0 {
		return nil
	}
	vals := make([]any, 0, len(evs))
	for _, e := range evs {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.Type, err)
		}
		vals = append(vals, string(raw))
	}
	return s.rdb.RPush(ctx, s.key, vals...).Err()
}

// Key returns the list key events are appended to.
func (s *RedisSink) Key() string { return s.key }

// MemorySink keeps events in process. Used by tests and vrfctl.
type MemorySink struct {
	mu  sync.Mutex
	evs []Event
}

func (m *MemorySink) Publish(_ context.Context, evs []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evs = append(m.evs, evs...)
	return nil
}

// Events returns a copy of everything published so far.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.evs))
	copy(out, m.evs)
	return out
}

// OfType filters published events by type.
func (m *MemorySink) OfType(typ Type) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
