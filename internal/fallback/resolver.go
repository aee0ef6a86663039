// Package fallback resolves one capability (extraction, search, notification...)
// through an ordered chain of channels. Channels are tried strictly in order and
// never concurrently, so a message is never delivered twice by racing channels.
package fallback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ComplianceReview/internal/domain"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/logging"
)

// Policy bounds retries of a single channel.
type Policy struct {
	// MaxAttempts is how many times a channel failing with a transient error
	// is called before the resolver moves on. Values below 1 mean 1.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// DefaultPolicy retries a transient failure once.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 2, Backoff: 200 * time.Millisecond}
}

// Channel is one implementation of a capability, bound to the arguments of the
// current call.
type Channel[T any] struct {
	Name string
	Call func(ctx context.Context) (T, error)
}

// Resolver holds the read-only retry policy shared by every stage. It is safe
// for concurrent use.
type Resolver struct {
	policy Policy
	logger *zap.SugaredLogger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewResolver builds a resolver with the given policy.
func NewResolver(policy Policy, logger *zap.SugaredLogger) *Resolver {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{policy: policy, logger: logger, sleep: sleepContext}
}

// Policy returns the retry policy in effect.
func (r *Resolver) Policy() Policy { return r.policy }

// Resolve calls the channels of chain in order until one succeeds. The returned
// Resolution names the winning channel and every failed attempt. When every
// channel fails the error is marked errors.ErrChainExhausted and wraps the last
// channel's error. Cancellation of ctx stops the chain before the next call.
func Resolve[T any](ctx context.Context, r *Resolver, capability string, chain []Channel[T]) (T, domain.Resolution, error) {
	var zero T
	res := domain.Resolution{Capability: capability}

	if len(chain) == 0 {
		return zero, res, errors.Wrapf(errors.ErrChainExhausted, "%s: no channels configured", capability)
	}

	var lastErr error
	for _, ch := range chain {
		for attempt := 1; ; attempt++ {
			if err := ctx.Err(); err != nil {
				return zero, res, errors.Wrapf(err, "%s: canceled before %s", capability, ch.Name)
			}

			start := time.Now()
			value, err := ch.Call(ctx)
			record := domain.Attempt{
				Channel:    ch.Name,
				Attempt:    attempt,
				DurationMS: time.Since(start).Milliseconds(),
			}

			if err == nil {
				res.Attempts = append(res.Attempts, record)
				res.Channel = ch.Name
				if len(res.Attempts) > 1 {
					r.logger.Infow("capability resolved by fallback", "capability", capability, "channel", ch.Name, "attempts", len(res.Attempts))
				}
				return value, res, nil
			}

			class := errors.Classify(err)
			if class == errors.ClassCanceled && ctx.Err() == nil {
				// A channel-local timeout, not ours.
				class = errors.ClassTransient
			}
			record.Class = string(class)
			record.Error = err.Error()
			record.Skipped = class == errors.ClassConfigurationAbsent
			res.Attempts = append(res.Attempts, record)
			lastErr = err

			if class == errors.ClassCanceled {
				return zero, res, errors.Wrapf(err, "%s: canceled during %s", capability, ch.Name)
			}

			if class == errors.ClassTransient && attempt < r.policy.MaxAttempts {
				r.logger.Warnw("channel failed, retrying", "capability", capability, "channel", ch.Name, "attempt", attempt, "error", err)
				if sErr := r.sleep(ctx, r.policy.Backoff*time.Duration(attempt)); sErr != nil {
					return zero, res, errors.Wrapf(sErr, "%s: canceled while backing off %s", capability, ch.Name)
				}
				continue
			}

			if class == errors.ClassConfigurationAbsent {
				r.logger.Debugw("channel not configured, skipping", "capability", capability, "channel", ch.Name)
			} else {
				r.logger.Warnw("channel failed, falling back", "capability", capability, "channel", ch.Name, "class", class, "error", err)
			}
			break
		}
	}

	err := errors.Wrapf(lastErr, "%s: all %d channels failed", capability, len(chain))
	return zero, res, errors.Mark(err, errors.ErrChainExhausted)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
