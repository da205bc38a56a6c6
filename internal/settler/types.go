package settler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"
)

// Default Redis keys for the proof submission pipeline.
const (
	QueueKey = "vrf:proofs:queue"
	RetryKey = "vrf:proofs:retry"
	DLQKey   = "vrf:proofs:dlq"
)

// Submission is one queued fulfillment attempt.
type Submission struct {
	Proof       hexutil.Bytes `json:"proof"`
	GasLimit    uint64        `json:"gas_limit"`
	GasPrice    *hexutil.Big  `json:"gas_price,omitempty"`
	Attempts    int           `json:"attempts"`
	SubmittedAt int64         `json:"submitted_at"`
}

// DeadLetter is what lands on the DLQ: the submission plus why it failed.
type DeadLetter struct {
	Raw      string `json:"raw"`
	Error    string `json:"error"`
	FailedAt int64  `json:"failed_at"`
}

// Outcome classifies what happened to one submission.
type Outcome string

const (
	OutcomeFulfilled  Outcome = "fulfilled"
	OutcomeDiscarded  Outcome = "discarded"
	OutcomeRetry      Outcome = "retry"
	OutcomeDeadLetter Outcome = "dead_letter"
)

// Options configures Run and RunRetry.
type Options struct {
	Queue           string
	Retry           string
	DLQ             string
	BlpopTimeout    time.Duration
	RetryInterval   time.Duration
	MaxAttempts     int
	DefaultGasLimit uint64
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = QueueKey
	}
	if o.Retry == "" {
		o.Retry = RetryKey
	}
	if o.DLQ == "" {
		o.DLQ = DLQKey
	}
	if o.BlpopTimeout <= 0 {
		o.BlpopTimeout = 5 * time.Second
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 15 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 20
	}
	if o.DefaultGasLimit == 0 {
		o.DefaultGasLimit = 2_500_000
	}
	return o
}

// Enqueue appends a submission to the proof queue.
func Enqueue(ctx context.Context, rdb *redis.Client, queue string, s Submission) error {
	if queue == "" {
		queue = QueueKey
	}
	if s.SubmittedAt == 0 {
		s.SubmittedAt = time.Now().Unix()
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, queue, string(raw)).Err()
}
