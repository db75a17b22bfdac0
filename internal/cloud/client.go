// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultEndpoint is the Cerebras chat completions URL.
	DefaultEndpoint = "https://api.cerebras.ai/v1/chat/completions"

	// DefaultTimeout is the default timeout for a single request.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies the client to the provider.
	DefaultUserAgent = "cerechat/0.1.0"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared transport for every Client that does not bring its own.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Client issues chat completion requests. It is safe for concurrent use;
// every field is fixed after construction.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	decoder    Decoder
	logger     *slog.Logger
}

// NewClient creates a client for endpoint that extracts replies with
// decoder. A nil decoder means the chat schema.
func NewClient(endpoint string, decoder Decoder) *Client {
	if decoder == nil {
		decoder = PathDecoder{Path: schemaPaths[SchemaChat]}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: sharedTransport,
		},
		userAgent: DefaultUserAgent,
		decoder:   decoder,
		logger:    slog.New(slog.DiscardHandler),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithUserAgent sets the client identifier header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithLogger sets the logger for request/response lines.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// EncodeRequest returns the JSON body that Complete would send.
func (c *Client) EncodeRequest(params Params, messages []ChatMessage) ([]byte, error) {
	body, err := json.Marshal(NewChatRequest(params, messages))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return body, nil
}

// Complete sends messages with params and returns the first generated
// message text. It performs exactly one HTTP request and blocks until the
// response or a transport error arrives.
//
// Every failure is an *Error; match kinds with errors.Is against
// ErrConfiguration, ErrTransport, ErrProtocol and ErrDecode.
func (c *Client) Complete(ctx context.Context, credential string, params Params, messages []ChatMessage) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", NewConfigurationError(errors.New("API credential is empty"))
	}

	body, err := c.EncodeRequest(params, messages)
	if err != nil {
		return "", NewConfigurationError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewConfigurationError(fmt.Errorf("failed to create request: %w", err))
	}
	c.setHeaders(req, credential)
	c.logRequest(req, credential, len(messages))

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after request to prevent logging
	req.Header.Del("Authorization")

	if err != nil {
		c.logger.Warn("completion request failed", "error", err, "duration", time.Since(start))
		return "", NewTransportError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := readResponse(resp)
	c.logResponse(resp, time.Since(start), len(respBody))
	if err != nil {
		return "", NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{Kind: KindProtocol, Status: resp.StatusCode, Body: string(respBody)}
	}

	reply, err := c.decoder.Decode(respBody)
	if err != nil {
		return "", &Error{Kind: KindDecode, Status: resp.StatusCode, Body: string(respBody), Err: err}
	}
	return reply, nil
}

// setHeaders sets the required headers for completion requests.
func (c *Client) setHeaders(req *http.Request, credential string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", c.userAgent)
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// =============================================================================
// Request/Response Logging (without sensitive data)
// =============================================================================

// logRequest logs an API request without headers or body.
func (c *Client) logRequest(req *http.Request, credential string, messageCount int) {
	c.logger.Debug("completion request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"messages", messageCount,
		"key", KeyFingerprint(credential),
	)
}

// logResponse logs the status line and duration, never the body.
func (c *Client) logResponse(resp *http.Response, duration time.Duration, size int) {
	c.logger.Info("completion response",
		"status", resp.StatusCode,
		"bytes", size,
		"duration", duration.Round(time.Millisecond),
	)
}

// KeyFingerprint returns a short SHA-256 fingerprint of a credential for
// log correlation. It never exposes key material.
func KeyFingerprint(credential string) string {
	if credential == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(h[:4])
}
