/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//nolint:revive // naming conventions acceptable in test code
package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/onsi/gomega"
	"golang.org/x/time/rate"
)

const defaultPollInterval = 3 * time.Second

//go:generate mockgen -source=api_client.go -destination=mock/doer.go -package=mock

// Doer is the transport used by the client, satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthMode selects which credentials are attached to a request.
type AuthMode int

const (
	// AuthSession sends the session bearer token and the API key.
	AuthSession AuthMode = iota
	// AuthAPIKey sends only the API key.
	AuthAPIKey
	// AuthNone sends no credentials at all.
	AuthNone
)

// Request describes a single call. The zero ExpectStatus means the caller
// wants the response whatever its status.
type Request struct {
	Method string
	// Path is relative to the versioned API prefix, or to the bare base
	// URL when Root is set.
	Path  string
	Root  bool
	Query url.Values
	// Headers are applied last, an empty value removes the header.
	Headers map[string]string
	Auth    AuthMode

	JSON        any
	Form        url.Values
	RawBody     []byte
	ContentType string

	Timeout      time.Duration
	ExpectStatus int
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	TraceID    string
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: decoding %d response: %w", ErrUnexpectedShape, r.StatusCode, err)
	}

	return nil
}

// Object decodes the body as a JSON object, the form the schema validators expect.
func (r *Response) Object() (map[string]any, error) {
	var object map[string]any
	if err := r.Decode(&object); err != nil {
		return nil, err
	}

	return object, nil
}

// ErrorDetail returns the error envelope detail, or an empty string if there is none.
func (r *Response) ErrorDetail() string {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return ""
	}

	return envelope.Text()
}

// HasDetail reports whether the body is an error envelope.
func (r *Response) HasDetail() bool {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return false
	}

	_, ok := envelope["detail"]

	return ok
}

type APIClient struct {
	config    *TestConfig
	doer      Doer
	limiter   *rate.Limiter
	session   *Session
	endpoints *Endpoints
	log       *Logger
	g         gomega.Gomega
	registry  *Registry

	pollInterval time.Duration
}

// Option customises a client at construction.
type Option func(*APIClient)

// WithDoer replaces the HTTP transport.
func WithDoer(doer Doer) Option {
	return func(c *APIClient) {
		c.doer = doer
	}
}

// WithGomega routes schema assertions to g, unit tests pass gomega.NewWithT(t).
func WithGomega(g gomega.Gomega) Option {
	return func(c *APIClient) {
		c.g = g
	}
}

func WithLogger(l *Logger) Option {
	return func(c *APIClient) {
		c.log = l
	}
}

// WithRegistry shares a created-entity registry between clients.
func WithRegistry(r *Registry) Option {
	return func(c *APIClient) {
		c.registry = r
	}
}

// WithPollInterval sets the initial delay between healthcheck attempts.
func WithPollInterval(d time.Duration) Option {
	return func(c *APIClient) {
		c.pollInterval = d
	}
}

// NewAPIClient loads configuration from the environment and builds a client.
func NewAPIClient(opts ...Option) (*APIClient, error) {
	config, err := LoadTestConfig()
	if err != nil {
		return nil, err
	}

	return NewAPIClientWithConfig(config, opts...), nil
}

func NewAPIClientWithConfig(config *TestConfig, opts ...Option) *APIClient {
	c := &APIClient{
		config:    config,
		doer:      &http.Client{},
		endpoints: NewEndpoints(),
		g:         gomega.Default,
		registry:  NewRegistry(),

		pollInterval: defaultPollInterval,
	}

	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = NewLogger(nil, config.DebugLogging)
	}

	c.session = NewSession(c, config.AdminUsername, config.AdminPassword)

	return c
}

// WithSession returns a client sharing everything but the credentials,
// used to act as a non-admin account.
func (c *APIClient) WithSession(session *Session) *APIClient {
	clone := *c
	clone.session = session

	return &clone
}

func (c *APIClient) Session() *Session {
	return c.session
}

func (c *APIClient) Config() *TestConfig {
	return c.config
}

func (c *APIClient) Endpoints() *Endpoints {
	return c.endpoints
}

func (c *APIClient) Logger() *Logger {
	return c.log
}

func (c *APIClient) Gomega() gomega.Gomega {
	return c.g
}

func (c *APIClient) Registry() *Registry {
	return c.registry
}

// logError logs a generic error with trace context.
func (c *APIClient) logError(method, path string, duration time.Duration, traceParent string, err error, context string) {
	c.log.Error(context, "method", method, "path", path, "duration", duration, "traceparent", traceParent, "error", err)
	c.logTraceContext(traceParent)
}

// logUnexpectedStatus logs an unexpected HTTP status code.
func (c *APIClient) logUnexpectedStatus(method, path string, expectedStatus, actualStatus int, body, traceParent string) {
	c.log.Error("unexpected status", "method", method, "path", path, "expected", expectedStatus, "got", actualStatus, "body", body, "traceparent", traceParent)
	c.logTraceContext(traceParent)
}

// logTraceContext logs the trace context information.
func (c *APIClient) logTraceContext(traceParent string) {
	c.log.Info("use the trace ID to search server logs for this request", "trace_id", extractTraceID(traceParent))
}

// generateTraceID creates a new W3C trace ID.
// A fresh trace per request lets a failing call be found in the server logs.
func generateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// generateSpanID creates a new W3C span ID.
func generateSpanID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// createTraceParent creates a W3C traceparent header value.
func createTraceParent() string {
	return fmt.Sprintf("00-%s-%s-01", generateTraceID(), generateSpanID())
}

// extractTraceID extracts the trace ID from a traceparent header value.
func extractTraceID(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) >= 2 {
		return parts[1]
	}

	return traceParent
}

func (c *APIClient) url(req *Request) string {
	base := c.config.APIURL()
	if req.Root {
		base = c.config.BaseURL
	}

	target := base + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	return target
}

func encodeBody(req *Request) (io.Reader, string, error) {
	switch {
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}

		return bytes.NewReader(data), "application/json", nil
	case req.Form != nil:
		return strings.NewReader(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	case req.RawBody != nil:
		return bytes.NewReader(req.RawBody), req.ContentType, nil
	}

	return nil, "", nil
}

func (c *APIClient) setAuthHeaders(ctx context.Context, httpReq *http.Request, mode AuthMode) error {
	switch mode {
	case AuthSession:
		headers, err := c.session.Headers(ctx)
		if err != nil {
			return err
		}

		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	case AuthAPIKey:
		httpReq.Header.Set(HeaderAPIKey, c.config.APIKey)
	case AuthNone:
	}

	return nil
}

// Do issues one request. No retries happen at this layer, retry and
// compensation logic belongs to the commands.
//
//nolint:cyclop // test code complexity is acceptable
func (c *APIClient) Do(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := encodeBody(&req)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.config.RequestTimeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for request slot: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(&req), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Add W3C Trace Context headers
	traceParent := createTraceParent()
	httpReq.Header.Set("Traceparent", traceParent)
	httpReq.Header.Set("Tracestate", "test-automation=ginkgo")

	if err := c.setAuthHeaders(ctx, httpReq, req.Auth); err != nil {
		return nil, fmt.Errorf("preparing credentials: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for k, v := range req.Headers {
		if v == "" {
			httpReq.Header.Del(k)
			continue
		}

		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.doer.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.logError(req.Method, req.Path, duration, traceParent, err, "http request failed")
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(req.Method, req.Path, duration, traceParent, err, "reading response body")
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.config.LogRequests {
		c.log.Info("request", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "duration", duration, "traceparent", traceParent)
	}

	if c.config.LogResponses && len(respBody) > 0 {
		c.log.Info("response body", "method", req.Method, "path", req.Path, "body", string(respBody))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
		Duration:   duration,
		TraceID:    extractTraceID(traceParent),
	}

	if req.ExpectStatus > 0 && resp.StatusCode != req.ExpectStatus {
		c.logUnexpectedStatus(req.Method, req.Path, req.ExpectStatus, resp.StatusCode, string(respBody), traceParent)
		return out, newStatusError(&req, out)
	}

	return out, nil
}
