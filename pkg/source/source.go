// Package source fetches record batches from the external record source.
//
// HTTPClient speaks the source's HTTP API, Retrier wraps any Fetcher with
// bounded power-of-three backoff, and the generator serves synthetic
// records for local runs and tests.
package source

import (
	"context"
	"errors"

	"github.com/downfa11-org/go-lake/pkg/types"
)

var (
	// ErrSourceUnavailable covers transport failures and non-200 responses. Retried.
	ErrSourceUnavailable = errors.New("record source unavailable")
	// ErrSourceConfig means the client lacks required connection settings. Not retried.
	ErrSourceConfig = errors.New("record source not configured")
	// ErrMalformedResponse means a 200 response body could not be decoded. Not retried.
	ErrMalformedResponse = errors.New("malformed record source response")
)

// MaxBatchSize is the largest batch the record source serves.
const MaxBatchSize = 100_000

// Fetcher returns the next batch of at most batchSize records.
type Fetcher interface {
	Fetch(ctx context.Context, batchSize int) (types.Batch, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, batchSize int) (types.Batch, error)

func (f FetcherFunc) Fetch(ctx context.Context, batchSize int) (types.Batch, error) {
	return f(ctx, batchSize)
}
