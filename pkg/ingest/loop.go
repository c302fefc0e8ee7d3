// Package ingest runs the flush loop: it polls the record source, buffers
// the returned records and publishes the buffer to the data lake whenever
// it reaches the flush threshold.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/downfa11-org/go-lake/pkg/metrics"
	"github.com/downfa11-org/go-lake/pkg/source"
	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/downfa11-org/go-lake/util"
	"github.com/sirupsen/logrus"
)

type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Publisher durably stores one batch. disk.Writer implements it.
type Publisher interface {
	Publish(batch types.Batch) (types.LandingFile, error)
}

type Options struct {
	BatchSize      int
	FlushThreshold int
	Timeout        time.Duration
	PollingCadence time.Duration
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = 100_000
	}
	if o.Timeout <= 0 {
		o.Timeout = 300 * time.Second
	}
	if o.PollingCadence < 0 {
		o.PollingCadence = 0
	}
}

// Loop owns the in-memory buffer. Records are delivered at most once: a
// buffer still unpublished when the process dies is lost.
type Loop struct {
	fetcher   source.Fetcher
	publisher Publisher
	opts      Options
	logger    logrus.FieldLogger

	state atomic.Int32

	mu     sync.Mutex
	buffer types.Batch
}

func NewLoop(f source.Fetcher, p Publisher, opts Options, logger logrus.FieldLogger) *Loop {
	opts.normalize()
	if logger == nil {
		logger = util.Logger()
	}
	return &Loop{
		fetcher:   f,
		publisher: p,
		opts:      opts,
		logger:    logger.WithField("action", "flush_loop"),
	}
}

func (l *Loop) State() State {
	return State(l.state.Load())
}

// Buffered returns the number of records fetched but not yet published.
func (l *Loop) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Run polls until the timeout elapses or ctx is cancelled, then publishes
// whatever is left in the buffer. The returned error is non-nil only when
// that final publish fails.
func (l *Loop) Run(ctx context.Context) error {
	l.state.Store(int32(StateRunning))
	defer l.state.Store(int32(StateStopped))

	runCtx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	l.logger.Infof("started: batch=%d threshold=%d timeout=%s cadence=%s",
		l.opts.BatchSize, l.opts.FlushThreshold, l.opts.Timeout, l.opts.PollingCadence)

	for runCtx.Err() == nil {
		l.cycle(runCtx)
		if !sleep(runCtx, l.opts.PollingCadence) {
			break
		}
	}

	l.state.Store(int32(StateDraining))
	l.logger.Infof("draining %d buffered records", l.Buffered())
	if l.Buffered() == 0 {
		return nil
	}
	if err := l.flush(); err != nil {
		l.logger.WithError(err).Errorf("final flush failed, %d records dropped", l.Buffered())
		return err
	}
	return nil
}

func (l *Loop) cycle(ctx context.Context) {
	batch, err := l.fetcher.Fetch(ctx, l.opts.BatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.FetchFailures.Inc()
		l.logger.WithError(err).Error("fetch failed")
		return
	}

	metrics.RecordsFetched.Add(float64(len(batch)))
	l.mu.Lock()
	l.buffer = append(l.buffer, batch...)
	size := len(l.buffer)
	l.mu.Unlock()
	metrics.BufferedRecords.Set(float64(size))

	if size >= l.opts.FlushThreshold {
		// on failure the buffer is kept and retried on the next crossing
		_ = l.flush()
	}
}

func (l *Loop) flush() error {
	l.mu.Lock()
	snapshot := l.buffer
	l.mu.Unlock()

	start := time.Now()
	lf, err := l.publisher.Publish(snapshot)
	if err != nil {
		metrics.FlushFailures.Inc()
		l.logger.WithError(err).Errorf("flush of %d records failed, keeping buffer", len(snapshot))
		return err
	}
	elapsed := time.Since(start)

	l.mu.Lock()
	// records appended after the snapshot stay buffered
	l.buffer = append(types.Batch(nil), l.buffer[len(snapshot):]...)
	remaining := len(l.buffer)
	l.mu.Unlock()

	metrics.ObservePublish(len(snapshot), elapsed)
	metrics.BufferedRecords.Set(float64(remaining))
	l.logger.WithFields(logrus.Fields{
		"file": lf.Name,
		"rows": len(snapshot),
		"took": elapsed,
	}).Info("flushed buffer")
	return nil
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
