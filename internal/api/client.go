// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout is the per-attempt timeout for ordinary calls.
	DefaultTimeout = 30 * time.Second

	// SendTimeout is the per-attempt timeout for message sends, which wait
	// on an upstream completion and therefore need longer.
	SendTimeout = 45 * time.Second

	// HealthTimeout is the timeout for the startup reachability probe.
	HealthTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts after the
	// initial try.
	DefaultMaxRetries = 3

	// DefaultInitialDelay is the backoff delay before the first retry.
	DefaultInitialDelay = 1 * time.Second

	// MaxResponseSize caps response bodies to prevent memory exhaustion.
	MaxResponseSize = 4 * 1024 * 1024 // 4MB
)

var (
	// sharedHTTPClient pools connections across all requests. It carries no
	// client-level timeout: deadlines are enforced per attempt via context.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
)

// Client is a client for the skiff chat backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	maxRetries   int
	initialDelay time.Duration

	// onlineProbe reports whether local network connectivity exists. It is
	// consulted only after a connection-level failure, to distinguish
	// OFFLINE from NETWORK_ERROR.
	onlineProbe func() bool
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   sharedHTTPClient,
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		onlineProbe:  interfacesOnline,
	}
}

// WithTimeout sets the per-attempt timeout for ordinary calls.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithMaxRetries sets the maximum number of retry attempts.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.maxRetries = maxRetries
	return c
}

// WithInitialDelay sets the backoff delay before the first retry.
func (c *Client) WithInitialDelay(delay time.Duration) *Client {
	c.initialDelay = delay
	return c
}

// WithHTTPClient sets a custom underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithOnlineProbe sets a custom connectivity probe.
func (c *Client) WithOnlineProbe(probe func() bool) *Client {
	c.onlineProbe = probe
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// RETRY LOOP
// =============================================================================

// backoffDelay returns the delay before retry n (0-indexed):
// initialDelay * 2^n.
func (c *Client) backoffDelay(retry int) time.Duration {
	return c.initialDelay * time.Duration(1<<uint(retry))
}

// do performs a request with per-attempt timeout, classification, and
// retry with exponential backoff. retries is the number of retry attempts
// after the initial one; pass 0 to disable retrying.
func (c *Client) do(ctx context.Context, method, path string, body any, timeout time.Duration, retries int) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoffDelay(attempt - 1)):
			}
		}

		data, err := c.attempt(ctx, method, path, payload, timeout)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !Retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// attempt performs a single HTTP request with its own deadline.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransport(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, &Error{
			Code:    CodeNetworkError,
			Message: "Unable to read the server response. Please try again later.",
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, classifyHTTP(resp.StatusCode, data)
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return data, nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classifyTransport normalizes a connection-level failure.
//
// A deadline hit on the attempt context is a TIMEOUT. Cancellation of the
// caller's context is passed through unclassified so teardown is not
// mistaken for a network fault. Everything else is OFFLINE when the local
// connectivity probe reports no usable interface, NETWORK_ERROR otherwise.
func (c *Client) classifyTransport(ctx, attemptCtx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
		return &Error{
			Code:    CodeTimeout,
			Message: "Request timed out. Please check your connection and try again.",
		}
	}
	if c.onlineProbe != nil && !c.onlineProbe() {
		return &Error{
			Code:    CodeOffline,
			Message: "No internet connection. Please check your network.",
		}
	}
	return &Error{
		Code:    CodeNetworkError,
		Message: "Unable to connect to the server. Please try again later.",
	}
}

// errorPayload is the JSON error body shape the backend emits.
type errorPayload struct {
	Error       string          `json:"error"`
	Code        string          `json:"code"`
	UserMessage json.RawMessage `json:"userMessage,omitempty"`
}

// classifyHTTP normalizes a non-2xx response. A parsable {error, code}
// body wins; otherwise the failure is a generic HTTP_ERROR.
func classifyHTTP(status int, body []byte) error {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		code := payload.Code
		if code == "" {
			if status == 429 {
				code = CodeRateLimit
			} else {
				code = CodeUnknown
			}
		}
		apiErr := &Error{
			Code:    code,
			Message: payload.Error,
			Status:  status,
		}
		if len(payload.UserMessage) > 0 {
			apiErr.UserMessage = decodeUserMessage(payload.UserMessage)
		}
		return apiErr
	}

	return &Error{
		Code:    CodeHTTPError,
		Message: fmt.Sprintf("Request failed with status %d", status),
		Status:  status,
	}
}

// interfacesOnline reports whether any non-loopback interface is up with
// an address assigned. Errors err on the side of "online" so that a probe
// failure never masks the real network error.
func interfacesOnline() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}
