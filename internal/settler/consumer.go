package settler

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
)

// Fulfiller is satisfied by *coordinator.Coordinator.
type Fulfiller interface {
	FulfillRandomWords(ctx context.Context, f coordinator.Fulfillment) (*coordinator.FulfillmentResult, error)
}

// GasPricer supplies a price for submissions that did not carry one.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Run is the main settler loop: BLPOP → fulfill → classify.
func Run(ctx context.Context, rdb *redis.Client, f Fulfiller, gas GasPricer, opts Options, log *zap.Logger) {
	opts = opts.withDefaults()
	log.Info("settler started", zap.String("queue", opts.Queue))

	for {
		if ctx.Err() != nil {
			log.Info("settler stopped")
			return
		}

		// BLPOP blocks until an item appears or timeout
		results, err := rdb.BLPop(ctx, opts.BlpopTimeout, opts.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Error("settler: BLPOP error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		// results[0] = key, results[1] = value
		raw := results[1]
		var s Submission
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			log.Error("settler: unmarshal submission", zap.String("raw", raw), zap.Error(err))
			deadLetter(ctx, rdb, opts.DLQ, raw, err, log)
			continue
		}

		if s.GasPrice == nil && gas != nil {
			p, err := gas.SuggestGasPrice(ctx)
			if err != nil {
				log.Error("settler: gas price", zap.Error(err))
				_ = rdb.LPush(ctx, opts.Queue, raw)
				time.Sleep(5 * time.Second)
				continue
			}
			s.GasPrice = (*hexutil.Big)(p)
		}

		Process(ctx, rdb, f, opts, raw, s, log)
	}
}

// Process fulfills one submission and routes it by outcome.
func Process(ctx context.Context, rdb *redis.Client, f Fulfiller, opts Options, raw string, s Submission, log *zap.Logger) Outcome {
	opts = opts.withDefaults()
	gasLimit := s.GasLimit
	if gasLimit == 0 {
		gasLimit = opts.DefaultGasLimit
	}
	price := new(big.Int)
	if s.GasPrice != nil {
		price = s.GasPrice.ToInt()
	}

	start := time.Now()
	res, err := f.FulfillRandomWords(ctx, coordinator.Fulfillment{
		Proof:    s.Proof,
		GasLimit: gasLimit,
		GasPrice: price,
	})
	return HandleResult(ctx, rdb, opts, raw, s, res, err, time.Since(start), log)
}

// RunRetry periodically moves submissions waiting on an archived block hash
// back onto the main queue.
func RunRetry(ctx context.Context, rdb *redis.Client, opts Options, log *zap.Logger) {
	opts = opts.withDefaults()
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := Requeue(ctx, rdb, opts)
			if err != nil {
				log.Error("settler: requeue retries", zap.Error(err))
			} else if n > 0 {
				log.Info("settler: requeued retries", zap.Int("count", n))
			}
		}
	}
}

// Requeue moves every entry of the retry list to the tail of the queue.
func Requeue(ctx context.Context, rdb *redis.Client, opts Options) (int, error) {
	opts = opts.withDefaults()
	n := 0
	for {
		err := rdb.LMove(ctx, opts.Retry, opts.Queue, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
