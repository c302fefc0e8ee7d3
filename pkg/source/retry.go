package source

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/downfa11-org/go-lake/pkg/metrics"
	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/downfa11-org/go-lake/util"
	"github.com/sirupsen/logrus"
)

// Retrier retries ErrSourceUnavailable up to maxAttempts calls in total,
// sleeping unit*3^k after the k-th failed attempt. It never sleeps after
// the last attempt.
type Retrier struct {
	inner       Fetcher
	maxAttempts int
	unit        time.Duration
	timer       backoff.Timer
	logger      logrus.FieldLogger
}

type RetryOption func(*Retrier)

// WithTimer replaces the timer used between attempts.
func WithTimer(t backoff.Timer) RetryOption {
	return func(r *Retrier) { r.timer = t }
}

func WithRetryLogger(l logrus.FieldLogger) RetryOption {
	return func(r *Retrier) { r.logger = l }
}

func NewRetrier(inner Fetcher, maxAttempts int, unit time.Duration, opts ...RetryOption) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if unit <= 0 {
		unit = time.Second
	}
	r := &Retrier{
		inner:       inner,
		maxAttempts: maxAttempts,
		unit:        unit,
		logger:      util.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) Fetch(ctx context.Context, batchSize int) (types.Batch, error) {
	var (
		batch   types.Batch
		attempt int
	)

	op := func() error {
		attempt++
		b, err := r.inner.Fetch(ctx, batchSize)
		if err == nil {
			batch = b
			return nil
		}
		if !errors.Is(err, ErrSourceUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		metrics.FetchRetries.Inc()
		r.logger.WithField("action", "source_fetch_retry").
			WithError(err).
			Warnf("fetch attempt %d/%d failed, retrying in %s", attempt, r.maxAttempts, next)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&powerBackOff{base: 3, unit: r.unit, max: MaxRetryDelay}, uint64(r.maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotifyWithTimer(op, policy, notify, r.timer); err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			r.logger.WithField("action", "source_fetch_retry").
				Errorf("retry attempts (%d) exhausted", attempt)
		}
		return nil, err
	}
	return batch, nil
}

// MaxRetryDelay caps a single wait between fetch attempts.
const MaxRetryDelay = 10 * time.Minute

// powerBackOff yields unit*base^k for the k-th retry, k starting at 1,
// capped at max.
type powerBackOff struct {
	base    float64
	unit    time.Duration
	max     time.Duration
	attempt int
}

func (b *powerBackOff) NextBackOff() time.Duration {
	b.attempt++
	limit := b.max
	if limit <= 0 {
		limit = MaxRetryDelay
	}
	d := float64(b.unit) * math.Pow(b.base, float64(b.attempt))
	if d >= float64(limit) || math.IsInf(d, 0) || math.IsNaN(d) {
		return limit
	}
	return time.Duration(d)
}

func (b *powerBackOff) Reset() {
	b.attempt = 0
}
