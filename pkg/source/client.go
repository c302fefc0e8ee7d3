package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/valyala/fasthttp"
)

// HTTPClient fetches batches with GET <endpoint>?batch=<n>.
type HTTPClient struct {
	endpoint string
	timeout  time.Duration
	client   *fasthttp.Client
}

type ClientOption func(*HTTPClient)

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) ClientOption {
	return func(c *HTTPClient) {
		c.client.Dial = dial
	}
}

func NewHTTPClient(endpoint string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &HTTPClient{
		endpoint: strings.TrimSpace(endpoint),
		timeout:  timeout,
		client: &fasthttp.Client{
			Name:                "go-lake",
			MaxResponseBodySize: 512 << 20,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Fetch(ctx context.Context, batchSize int) (types.Batch, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: missing endpoint url", ErrSourceConfig)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.URI().QueryArgs().SetUint("batch", batchSize)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrSourceUnavailable, c.endpoint, err)
	}

	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: status code %d, msg: %s", ErrSourceUnavailable, status, errorDetail(resp.Body()))
	}

	var batch types.Batch
	if err := json.Unmarshal(resp.Body(), &batch); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return batch, nil
}

func errorDetail(body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == nil {
		return "Bad request"
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	return fmt.Sprint(payload.Detail)
}
