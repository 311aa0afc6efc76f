// Package backend holds the HTTP plumbing shared by the content platform
// clients: fixed transport headers, status mapping, JSON decoding and
// bounded pagination.
package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"batch_txt_bot/src/metrics"

	"github.com/bytedance/sonic"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 32 << 20

// NewHTTPClient returns the client every backend shares. timeout bounds each
// request, including reading the body.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Request describes one call relative to the client's base URL
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 200 response
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Decode unmarshals the body into out
func (r *Response) Decode(out any) error {
	if err := sonic.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Client sends requests to one backend with a constant header set
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	header  http.Header
	metrics *metrics.Metrics
}

// NewClient creates a client. header is sent on every request; per-request
// headers are added on top.
func NewClient(name, baseURL string, httpClient *http.Client, header http.Header, m *metrics.Metrics) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		header:  header.Clone(),
		metrics: m,
	}
}

// Name is the backend label used in errors, logs and metrics
func (c *Client) Name() string {
	return c.name
}

// Do performs the request and reads the body. It never inspects the status
// code; callers decide what a non-200 means for their operation.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := sonic.Marshal(req.Body)
		if err != nil {
			return nil, &TransportError{Backend: c.name, Op: req.Op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Backend: c.name, Op: req.Op, Err: err}
	}
	for k, vs := range c.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.BackendRequest(c.name, req.Op, "error", time.Since(start))
		return nil, &TransportError{Backend: c.name, Op: req.Op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.BackendRequest(c.name, req.Op, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, &TransportError{Backend: c.name, Op: req.Op, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// StatusErr builds the StatusError for a response of op
func (c *Client) StatusErr(op string, resp *Response) error {
	return &StatusError{Backend: c.name, Op: op, StatusCode: resp.StatusCode}
}
