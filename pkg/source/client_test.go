package source

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func serveInmemory(t *testing.T, handler fasthttp.RequestHandler) *fasthttputil.InmemoryListener {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func inmemoryClient(ln *fasthttputil.InmemoryListener) *HTTPClient {
	return NewHTTPClient("http://source.local/records", time.Second, WithDial(func(string) (net.Conn, error) {
		return ln.Dial()
	}))
}

func TestHTTPClientFetch(t *testing.T) {
	ln := serveInmemory(t, NewGeneratorHandler(NewGenerator(1)))
	c := inmemoryClient(ln)

	batch, err := c.Fetch(context.Background(), 250)
	require.NoError(t, err)
	assert.Len(t, batch, 250)
	for _, r := range batch {
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.IntervalEnd.Before(r.IntervalStart))
	}
}

func TestHTTPClientRejectedBatchSize(t *testing.T) {
	ln := serveInmemory(t, NewGeneratorHandler(NewGenerator(1)))
	c := inmemoryClient(ln)

	_, err := c.Fetch(context.Background(), MaxBatchSize+1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "status code 400")
	assert.Contains(t, err.Error(), "Limit batch size to 100000")
}

func TestHTTPClientServerError(t *testing.T) {
	ln := serveInmemory(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		ctx.SetBodyString("down")
	})
	c := inmemoryClient(ln)

	_, err := c.Fetch(context.Background(), 10)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "Bad request")
}

func TestHTTPClientMalformedBody(t *testing.T) {
	ln := serveInmemory(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(`{"not":"a list"`)
	})
	c := inmemoryClient(ln)

	_, err := c.Fetch(context.Background(), 10)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.NotErrorIs(t, err, ErrSourceUnavailable)
}

func TestHTTPClientTransportError(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	require.NoError(t, ln.Close())
	c := inmemoryClient(ln)

	_, err := c.Fetch(context.Background(), 10)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHTTPClientMissingEndpoint(t *testing.T) {
	c := NewHTTPClient("  ", time.Second)

	_, err := c.Fetch(context.Background(), 10)
	assert.ErrorIs(t, err, ErrSourceConfig)
}

func TestHTTPClientCanceledContext(t *testing.T) {
	ln := serveInmemory(t, NewGeneratorHandler(NewGenerator(1)))
	c := inmemoryClient(ln)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
