package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// URLKeyFmt is the Redis key holding a consumer's webhook URL.
const URLKeyFmt = "vrf:callback:%s"

// DefaultGas is charged when a webhook does not report its own gas usage,
// capped at the request's callback gas limit.
const DefaultGas = 21_000

var (
	ErrNoWebhook  = errors.New("no webhook registered")
	ErrInvalidURL = errors.New("invalid webhook url")
)

// Delivery is the JSON body POSTed to a consumer webhook.
type Delivery struct {
	RequestID   common.Hash `json:"request_id"`
	RandomWords []string    `json:"random_words"`
	GasLimit    uint32      `json:"gas_limit"`
}

type deliveryResponse struct {
	GasUsed *uint64 `json:"gas_used"`
}

// Webhook posts fulfilled words to URLs consumers registered in Redis.
type Webhook struct {
	rdb  *redis.Client
	http *http.Client
}

func NewWebhook(rdb *redis.Client, timeout time.Duration) *Webhook {
	return &Webhook{rdb: rdb, http: &http.Client{Timeout: timeout}}
}

func urlKey(consumer common.Address) string {
	return fmt.Sprintf(URLKeyFmt, strings.ToLower(consumer.Hex()))
}

// SetURL registers or replaces a consumer's webhook. An empty URL removes it.
func (w *Webhook) SetURL(ctx context.Context, consumer common.Address, raw string) error {
	if raw == "" {
		return w.rdb.Del(ctx, urlKey(consumer)).Err()
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return w.rdb.Set(ctx, urlKey(consumer), u.String(), 0).Err()
}

// URL returns the consumer's webhook, or "" when none is registered.
func (w *Webhook) URL(ctx context.Context, consumer common.Address) (string, error) {
	s, err := w.rdb.Get(ctx, urlKey(consumer)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return s, err
}

// Invoke POSTs the words and treats any non-2xx answer as a failed callback.
// The consumer may report its gas usage in the response body.
func (w *Webhook) Invoke(ctx context.Context, consumer common.Address, gasLimit uint32, requestID common.Hash, words []*big.Int) (uint64, error) {
	target, err := w.URL(ctx, consumer)
	if err != nil {
		return 0, fmt.Errorf("lookup webhook: %w", err)
	}
	if target == "" {
		return 0, fmt.Errorf("%w for %s", ErrNoWebhook, consumer.Hex())
	}

	d := Delivery{RequestID: requestID, GasLimit: gasLimit, RandomWords: make([]string, len(words))}
	for i, v := range words {
		d.RandomWords[i] = v.String()
	}
	body, err := json.Marshal(d)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	fallback := min(uint64(DefaultGas), uint64(gasLimit))
	resp, err := w.http.Do(req)
	if err != nil {
		return fallback, fmt.Errorf("webhook %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fallback, fmt.Errorf("webhook %s: status %d", target, resp.StatusCode)
	}

	var out deliveryResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &out) == nil && out.GasUsed != nil {
		return *out.GasUsed, nil
	}
	return fallback, nil
}
