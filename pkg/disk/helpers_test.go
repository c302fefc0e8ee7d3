package disk_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/downfa11-org/go-lake/pkg/disk"
	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newLake(t *testing.T) *disk.Lake {
	t.Helper()
	lake, err := disk.OpenLake(t.TempDir())
	require.NoError(t, err)
	return lake
}

func makeBatch(prefix string, n int) types.Batch {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	batch := make(types.Batch, n)
	for i := range batch {
		batch[i] = types.Record{
			ID:            fmt.Sprintf("%s-%06d", prefix, i),
			Category:      "Engineering",
			Location:      "Grace",
			IntervalStart: start,
			IntervalEnd:   start.Add(time.Duration(i) * time.Minute),
			Flag:          i%2 == 0,
		}
	}
	return batch
}

func newWriter(lake *disk.Lake) *disk.Writer {
	logger, _ := test.NewNullLogger()
	return disk.NewWriter(lake, "events", disk.WithWriterLogger(logger))
}

func newCompactor(lake *disk.Lake) *disk.Compactor {
	logger, _ := test.NewNullLogger()
	return disk.NewCompactor(lake, "events", disk.WithCompactorLogger(logger))
}

func publishN(t *testing.T, w *disk.Writer, sizes ...int) int64 {
	t.Helper()
	var total int64
	for i, n := range sizes {
		_, err := w.Publish(makeBatch(fmt.Sprintf("f%d", i), n))
		require.NoError(t, err)
		total += int64(n)
	}
	return total
}
