package disk

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/downfa11-org/go-lake/util"
	"github.com/pkg/errors"
)

// SweepStaging removes staging files older than maxAge. Such files are
// leftovers of writes or compactions interrupted by a crash; a live write
// never stays in TempDir that long.
func (l *Lake) SweepStaging(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(l.TempDir)
	if err != nil {
		return 0, errors.Wrapf(err, "list %s", l.TempDir)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(l.TempDir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			util.Warn("Staging sweep: failed to remove %s: %v", path, err)
			continue
		}
		util.Debug("Staging sweep: removed %s (age %s)", path, time.Since(info.ModTime()).Truncate(time.Second))
		removed++
	}
	return removed, nil
}

// RunStagingSweeper calls SweepStaging every interval until ctx is done.
func (l *Lake) RunStagingSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = maxAge
	}
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := l.SweepStaging(maxAge); err != nil {
				util.Warn("Staging sweep failed: %v", err)
			} else if n > 0 {
				util.Info("Staging sweep: removed %d stale files", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
