package disk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/downfa11-org/go-lake/util"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Writer publishes batches into the landing zone. A file is encoded and
// fsynced under TempDir, then renamed into LandingDir, so readers only ever
// see complete files.
type Writer struct {
	lake    *Lake
	dataset string
	codec   compress.Codec
	logger  logrus.FieldLogger
}

type WriterOption func(*Writer)

func WithCompression(name string) WriterOption {
	return func(w *Writer) { w.codec = Codec(name) }
}

func WithWriterLogger(l logrus.FieldLogger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

func NewWriter(lake *Lake, dataset string, opts ...WriterOption) *Writer {
	w := &Writer{
		lake:    lake,
		dataset: dataset,
		codec:   Codec("snappy"),
		logger:  util.Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Publish writes batch as one new landing file. On error nothing is left
// behind in either directory.
func (w *Writer) Publish(batch types.Batch) (types.LandingFile, error) {
	if len(batch) == 0 {
		return types.LandingFile{}, ErrEmptyBatch
	}

	name := landingName(w.dataset)
	staging := filepath.Join(w.lake.TempDir, name)
	final := filepath.Join(w.lake.LandingDir, name)

	size, err := w.writeStaging(staging, batch)
	if err != nil {
		_ = os.Remove(staging)
		return types.LandingFile{}, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	if err := os.Rename(staging, final); err != nil {
		_ = os.Remove(staging)
		return types.LandingFile{}, fmt.Errorf("%w: %w", ErrWriteFailure, errors.Wrapf(err, "publish %s", name))
	}
	if err := syncDir(w.lake.LandingDir); err != nil {
		w.logger.WithField("action", "publish").WithError(err).Debug("landing directory fsync failed")
	}

	w.logger.WithFields(logrus.Fields{
		"action": "publish",
		"file":   name,
		"rows":   len(batch),
	}).Debug("published landing file")

	return types.LandingFile{
		Name:      name,
		Path:      final,
		Rows:      int64(len(batch)),
		SizeBytes: size,
	}, nil
}

func (w *Writer) writeStaging(path string, batch types.Batch) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.Wrapf(err, "create staging file %s", path)
	}
	defer f.Close()

	pw := newRecordWriter(f, w.codec)
	if _, err := pw.Write(batch); err != nil {
		return 0, errors.Wrapf(err, "encode %s", path)
	}
	if err := pw.Close(); err != nil {
		return 0, errors.Wrapf(err, "finish %s", path)
	}
	if err := f.Sync(); err != nil {
		return 0, errors.Wrapf(err, "fsync %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", path)
	}
	return info.Size(), nil
}
