package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/louisbranch/warfront/internal/services/battle/domain/decision"
)

// DefaultMaxTries bounds delivery attempts when RetryConfig leaves it unset.
const DefaultMaxTries = 5

// RetryConfig tunes Retrying.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// BackOff overrides the exponential schedule. Tests use
	// backoff.ZeroBackOff.
	BackOff backoff.BackOff
}

// Retrying retries transient delivery failures of another gateway. Deferred
// answers and context cancellation are returned immediately; retry policy
// belongs here rather than in the engine.
type Retrying struct {
	next Gateway
	cfg  RetryConfig
}

// NewRetrying wraps next.
func NewRetrying(next Gateway, cfg RetryConfig) *Retrying {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = DefaultMaxTries
	}
	return &Retrying{next: next, cfg: cfg}
}

// RequestDecision asks next until it answers, defers, or runs out of tries.
func (r *Retrying) RequestDecision(ctx context.Context, req decision.Request) (decision.Response, error) {
	operation := func() (decision.Response, error) {
		resp, err := r.next.RequestDecision(ctx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrDeferred) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return decision.Response{}, backoff.Permanent(err)
		}
		return decision.Response{}, err
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(r.schedule()),
		backoff.WithMaxTries(r.cfg.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Printf("decision %s for battle %s failed, retrying in %s: %v", req.Kind, req.BattleID, wait, err)
		}),
	)
}

func (r *Retrying) schedule() backoff.BackOff {
	if r.cfg.BackOff != nil {
		return r.cfg.BackOff
	}
	b := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		b.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		b.MaxInterval = r.cfg.MaxInterval
	}
	return b
}
