package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/settingsync/internal/constants"
	"github.com/hyp3rd/settingsync/internal/sentinel"
)

const (
	// maxRetries bounds retransmissions of module-level calls. Field-level
	// reads never retry; they are opportunistic by contract.
	maxRetries   = 2
	retriesDelay = 100 * time.Millisecond

	statusThreshold = 300

	errMsgNewRequest = "new request"
	errMsgDoRequest  = "do request"

	headerRequestID = "X-Request-ID"
	contentType     = "application/json"
)

// HTTPClient implements Client over HTTP JSON.
type HTTPClient struct {
	client         *http.Client
	baseURL        string
	settingTimeout time.Duration
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-call timeout for module-level operations.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithSettingTimeout sets the per-call timeout for field-level reads.
func WithSettingTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.settingTimeout = timeout
	}
}

// WithHTTPTransport sets the underlying transport, e.g. for tests.
func WithHTTPTransport(rt http.RoundTripper) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Transport = rt
	}
}

// NewHTTPClient creates a new HTTP settings client for the given base URL
// (scheme + host, no trailing slash).
func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "baseURL")
	}

	httpClient := &HTTPClient{
		client:         &http.Client{Timeout: constants.DefaultLoadTimeout},
		baseURL:        baseURL,
		settingTimeout: constants.DefaultSettingTimeout,
	}

	for _, opt := range opts {
		opt(httpClient)
	}

	return httpClient, nil
}

// moduleURL builds the endpoint URL for a module, optionally scoped to a key.
func (c *HTTPClient) moduleURL(path, module, key string) string {
	query := url.Values{}
	query.Set("module", module)

	if key != "" {
		query.Set("key", key)
	}

	return c.baseURL + path + "?" + query.Encode()
}

// GetModule fetches the full settings record of a module, retrying transient
// failures with exponential backoff.
func (c *HTTPClient) GetModule(ctx context.Context, module string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)

	err := c.withRetries(func() error {
		var callErr error
		data, found, callErr = c.get(ctx, c.moduleURL("/settings/module", module, ""))

		return callErr
	})
	if err != nil {
		return nil, false, &RPCError{Op: "GetModule", Module: module, Err: err}
	}

	return data, found, nil
}

// GetSetting fetches a single field of a module's settings. One attempt, short
// timeout: a slow field read is worth less than the render it would block.
func (c *HTTPClient) GetSetting(ctx context.Context, module, key string) ([]byte, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.settingTimeout)
	defer cancel()

	data, found, err := c.get(callCtx, c.moduleURL("/settings/setting", module, key))
	if err != nil {
		return nil, false, &RPCError{Op: "GetSetting", Module: module, Err: err}
	}

	return data, found, nil
}

// PutModule persists the full settings record of a module.
func (c *HTTPClient) PutModule(ctx context.Context, module string, data []byte) error {
	err := c.withRetries(func() error {
		return c.put(ctx, c.moduleURL("/settings/module", module, ""), data)
	})
	if err != nil {
		return &RPCError{Op: "PutModule", Module: module, Err: err}
	}

	return nil
}

// PutSetting persists a single field of a module's settings.
func (c *HTTPClient) PutSetting(ctx context.Context, module, key string, data []byte) error {
	err := c.withRetries(func() error {
		return c.put(ctx, c.moduleURL("/settings/setting", module, key), data)
	})
	if err != nil {
		return &RPCError{Op: "PutSetting", Module: module, Err: err}
	}

	return nil
}

// Health probes the remote endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	_, _, err := c.get(ctx, c.baseURL+"/healthz")
	if err != nil {
		return &RPCError{Op: "Health", Module: "", Err: err}
	}

	return nil
}

// get performs one GET call. A 404 maps to found=false, not an error.
func (c *HTTPClient) get(ctx context.Context, callURL string) ([]byte, bool, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, callURL, nil)
	if err != nil {
		return nil, false, ewrap.Wrap(err, errMsgNewRequest)
	}

	hreq.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.client.Do(hreq)
	if err != nil {
		return nil, false, ewrap.Wrap(err, errMsgDoRequest)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}

	if resp.StatusCode >= statusThreshold {
		return nil, false, ewrap.Newf("get status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, ewrap.Wrap(err, "read body")
	}

	return body, true, nil
}

// put performs one PUT call.
func (c *HTTPClient) put(ctx context.Context, callURL string, data []byte) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPut, callURL, bytes.NewReader(data))
	if err != nil {
		return ewrap.Wrap(err, errMsgNewRequest)
	}

	hreq.Header.Set("Content-Type", contentType)
	hreq.Header.Set(headerRequestID, uuid.NewString())

	resp, err := c.client.Do(hreq)
	if err != nil {
		return ewrap.Wrap(err, errMsgDoRequest)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= statusThreshold {
		body, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return ewrap.Wrap(rerr, "read error body")
		}

		return ewrap.Newf("put status %d body %s", resp.StatusCode, string(body))
	}

	return nil
}

// withRetries runs fn up to maxRetries+1 times with exponential backoff.
func (c *HTTPClient) withRetries(fn func() error) error {
	var err error

	delay := retriesDelay
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}

	return err
}
