package settler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/metrics"
)

// HandleResult routes a submission after one fulfillment attempt:
//   - success: logged
//   - request already fulfilled or never made: discarded
//   - block hash not yet archived: pushed to the retry list until MaxAttempts
//   - anything else: dead-lettered
func HandleResult(
	ctx context.Context,
	rdb *redis.Client,
	opts Options,
	raw string,
	s Submission,
	res *coordinator.FulfillmentResult,
	err error,
	took time.Duration,
	log *zap.Logger,
) Outcome {
	opts = opts.withDefaults()
	var outcome Outcome

	switch {
	case err == nil:
		outcome = OutcomeFulfilled
		log.Info("proof fulfilled",
			zap.String("request_id", res.RequestID.Hex()),
			zap.String("payment", res.Payment.String()),
			zap.String("operator", res.Operator.Hex()),
			zap.Bool("callback_success", res.Success),
			zap.Uint64("gas_used", res.GasUsed),
		)

	case errors.Is(err, coordinator.ErrNoCorrespondingRequest):
		outcome = OutcomeDiscarded
		log.Warn("submission discarded: no pending request", zap.Error(err))

	case errors.Is(err, coordinator.ErrBlockHashNotInStore):
		s.Attempts++
		if s.Attempts >= opts.MaxAttempts {
			outcome = OutcomeDeadLetter
			deadLetter(ctx, rdb, opts.DLQ, raw, err, log)
			break
		}
		outcome = OutcomeRetry
		next, _ := json.Marshal(s)
		if perr := rdb.RPush(ctx, opts.Retry, string(next)).Err(); perr != nil {
			log.Error("settler: push retry", zap.Error(perr))
		}
		log.Warn("submission waiting for block hash",
			zap.Int("attempts", s.Attempts),
			zap.Error(err),
		)

	default:
		outcome = OutcomeDeadLetter
		deadLetter(ctx, rdb, opts.DLQ, raw, err, log)
	}

	metrics.RecordSettlement(string(outcome), took)
	return outcome
}

func deadLetter(ctx context.Context, rdb *redis.Client, dlq, raw string, cause error, log *zap.Logger) {
	entry, _ := json.Marshal(DeadLetter{Raw: raw, Error: cause.Error(), FailedAt: time.Now().Unix()})
	if err := rdb.RPush(ctx, dlq, string(entry)).Err(); err != nil {
		log.Error("settler: push DLQ", zap.Error(err))
	}
	log.Error("submission dead-lettered", zap.Error(cause))
}
