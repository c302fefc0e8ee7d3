// Package disk owns the on-disk data lake: the landing and staging
// directories, the atomic Parquet write path, compaction and the
// landing-zone watcher that triggers it.
package disk

import "github.com/pkg/errors"

var (
	ErrWriteFailure      = errors.New("durable write failed")
	ErrEmptyBatch        = errors.New("refusing to publish an empty batch")
	ErrCompactionFailure = errors.New("compaction failed")
	// ErrPartialDeletion accompanies a valid CompactionResult whose
	// originals could not all be removed.
	ErrPartialDeletion = errors.New("compaction left original files behind")
)
