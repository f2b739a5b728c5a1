// Package sdk is a Go client for the metastore catalog RPC surface.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Options configures a Client.
type Options struct {
	// Addr is host:port of the catalog server.
	Addr string

	// Secure switches the transport to https.
	Secure bool

	// Timeout bounds every call; default 30 seconds.
	Timeout time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logging
	Logger *zap.Logger
}

// SetDefaults sets default values for options
func (o *Options) SetDefaults() *Options {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:9083"
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Headers == nil {
		o.Headers = map[string]string{}
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ParseDSN parses metastore://host:port[?secure=true&timeout=10s].
func ParseDSN(dsn string) (*Options, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse dsn")
	}
	if u.Scheme != "metastore" {
		return nil, errors.Errorf("invalid DSN scheme %q, must be metastore://", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("invalid DSN: missing host")
	}

	o := &Options{Addr: u.Host}
	q := u.Query()
	if v := q.Get("secure"); v != "" {
		o.Secure = v == "true" || v == "1"
	}
	if v := q.Get("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrap(err, "parse timeout")
		}
		o.Timeout = d
	}
	return o, nil
}

// Client calls the catalog RPC surface. It is safe for concurrent use.
type Client struct {
	opt  *Options
	base string
}

// NewClient creates a client; it does not contact the server.
func NewClient(opt *Options) *Client {
	if opt == nil {
		opt = &Options{}
	}
	o := opt.SetDefaults()
	scheme := "http"
	if o.Secure {
		scheme = "https"
	}
	return &Client{opt: o, base: scheme + "://" + strings.TrimSuffix(o.Addr, "/")}
}

// Open creates a client and checks the server is alive.
func Open(ctx context.Context, opt *Options) (*Client, error) {
	c := NewClient(opt)
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Ping checks the server health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "build ping request")
	}
	resp, err := c.opt.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "ping")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("server is not healthy: %s", resp.Status)
	}
	return nil
}

// call posts req to the verb endpoint and decodes the result into out.
func (c *Client) call(ctx context.Context, op string, req *request, out interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return errors.Wrapf(err, "encode %s", op)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/"+op, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "build %s", op)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.opt.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.opt.HTTPClient.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "call %s", op)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s response", op)
	}
	c.opt.Logger.Debug("catalog call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", resp.Header.Get("X-Request-ID")),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return decodeError(op, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Wrapf(err, "decode %s response", op)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return errors.Wrapf(err, "decode %s result", op)
	}
	return nil
}
