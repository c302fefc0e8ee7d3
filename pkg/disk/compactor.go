package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/downfa11-org/go-lake/pkg/metrics"
	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/downfa11-org/go-lake/util"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CompactionResult describes one completed compaction.
type CompactionResult struct {
	Output   types.LandingFile
	Inputs   []string
	Rows     int64
	Leftover []string // originals that could not be deleted
}

// Compactor merges the eligible files of a directory into one compacted file.
type Compactor struct {
	lake    *Lake
	dataset string
	codec   compress.Codec
	logger  logrus.FieldLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	remove func(string) error
}

type CompactorOption func(*Compactor)

func WithCompactorCompression(name string) CompactorOption {
	return func(c *Compactor) { c.codec = Codec(name) }
}

func WithCompactorLogger(l logrus.FieldLogger) CompactorOption {
	return func(c *Compactor) { c.logger = l }
}

func NewCompactor(lake *Lake, dataset string, opts ...CompactorOption) *Compactor {
	c := &Compactor{
		lake:    lake,
		dataset: dataset,
		codec:   Codec("snappy"),
		logger:  util.Logger(),
		locks:   make(map[string]*sync.Mutex),
		remove:  os.Remove,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compactor) dirLock(dir string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[dir]
	if !ok {
		l = &sync.Mutex{}
		c.locks[dir] = l
	}
	return l
}

// Compact merges every eligible file in dir. It returns a nil result when
// there was nothing to do: fewer than two eligible files, or another
// compaction of dir already running.
//
// A non-nil result may come with ErrPartialDeletion: the compacted file is
// published but some originals remain, so their rows are visible twice
// until they are removed.
func (c *Compactor) Compact(dir string) (*CompactionResult, error) {
	lock := c.dirLock(filepath.Clean(dir))
	if !lock.TryLock() {
		c.logger.WithField("action", "compact").WithField("dir", dir).Debug("compaction already running, skipping")
		return nil, nil
	}
	defer lock.Unlock()

	inputs, err := ListEligible(dir)
	if err != nil {
		metrics.CompactionFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrCompactionFailure, err)
	}
	if len(inputs) < 2 {
		return nil, nil
	}

	metrics.CompactionInProgress.Inc()
	defer metrics.CompactionInProgress.Dec()
	start := time.Now()

	name := compactedName(c.dataset)
	staging := filepath.Join(c.lake.TempDir, name)
	final := filepath.Join(dir, name)

	rows, size, err := c.merge(staging, inputs)
	if err == nil {
		if rerr := os.Rename(staging, final); rerr != nil {
			err = errors.Wrapf(rerr, "publish %s", name)
		}
	}
	if err != nil {
		_ = os.Remove(staging)
		metrics.CompactionFailures.Inc()
		c.logger.WithField("action", "compact").WithError(err).Errorf("compaction of %d files in %s failed", len(inputs), dir)
		return nil, fmt.Errorf("%w: %w", ErrCompactionFailure, err)
	}
	if err := syncDir(dir); err != nil {
		c.logger.WithField("action", "compact").WithError(err).Debug("directory fsync failed")
	}

	res := &CompactionResult{
		Output: types.LandingFile{
			Name:      name,
			Path:      final,
			Rows:      rows,
			SizeBytes: size,
			Compacted: true,
		},
		Inputs: inputs,
		Rows:   rows,
	}
	for _, p := range inputs {
		if err := c.remove(p); err != nil && !os.IsNotExist(err) {
			c.logger.WithField("action", "compact").WithError(err).Warnf("failed to delete compacted original %s", p)
			res.Leftover = append(res.Leftover, p)
		}
	}
	metrics.ObserveCompaction(len(inputs), len(res.Leftover))

	c.logger.WithFields(logrus.Fields{
		"action":   "compact",
		"output":   name,
		"files":    len(inputs),
		"rows":     rows,
		"took":     time.Since(start),
		"leftover": len(res.Leftover),
	}).Info("compaction finished")

	if len(res.Leftover) > 0 {
		return res, fmt.Errorf("%w: %d of %d originals remain in %s", ErrPartialDeletion, len(res.Leftover), len(inputs), dir)
	}
	return res, nil
}

func (c *Compactor) merge(staging string, inputs []string) (int64, int64, error) {
	f, err := os.OpenFile(staging, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "create staging file %s", staging)
	}
	defer f.Close()

	pw := newRecordWriter(f, c.codec)
	var rows int64
	for _, p := range inputs {
		n, err := copyRows(pw, p)
		if err != nil {
			return 0, 0, err
		}
		rows += n
	}
	if err := pw.Close(); err != nil {
		return 0, 0, errors.Wrapf(err, "finish %s", staging)
	}
	if err := f.Sync(); err != nil {
		return 0, 0, errors.Wrapf(err, "fsync %s", staging)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, 0, errors.Wrapf(err, "stat %s", staging)
	}
	return rows, info.Size(), nil
}
