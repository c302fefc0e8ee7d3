package disk

import (
	"io"
	"os"
	"strings"

	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

const readChunkRows = 4096

// Codec maps a compression name to its parquet codec, defaulting to snappy.
func Codec(name string) compress.Codec {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "uncompressed":
		return &parquet.Uncompressed
	case "gzip":
		return &parquet.Gzip
	case "zstd":
		return &parquet.Zstd
	case "lz4":
		return &parquet.Lz4Raw
	default:
		return &parquet.Snappy
	}
}

func newRecordWriter(w io.Writer, codec compress.Codec) *parquet.GenericWriter[types.Record] {
	return parquet.NewGenericWriter[types.Record](w, parquet.Compression(codec))
}

// copyRows streams every row of the parquet file at path into w.
func copyRows(w *parquet.GenericWriter[types.Record], path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	adviseSequential(f)

	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", path)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return 0, errors.Wrapf(err, "open parquet file %s", path)
	}
	r := parquet.NewGenericReader[types.Record](pf)
	defer r.Close()

	buf := make([]types.Record, readChunkRows)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return total, errors.Wrapf(werr, "write rows from %s", path)
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, errors.Wrapf(err, "read %s", path)
		}
	}
}

// ReadFile decodes every record of the parquet file at path.
func ReadFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	rows, err := parquet.Read[types.Record](f, info.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return rows, nil
}

// CountRows reads the row count from the file footer without decoding rows.
func CountRows(path string) (int64, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "mmap %s", path)
	}
	defer r.Close()

	pf, err := parquet.OpenFile(r, int64(r.Len()))
	if err != nil {
		return 0, errors.Wrapf(err, "open parquet footer %s", path)
	}
	return pf.NumRows(), nil
}
