// Package httputil holds the HTTP client abstraction used by remote
// detectors and the JSON response helpers used by the report server.
package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a single request made through NewStandardClient(nil).
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is quoted in errors.
const maxErrorBody = 512

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StandardClient wraps *http.Client to implement HTTPClient.
type StandardClient struct {
	*http.Client
}

// NewStandardClient wraps c, or a client with DefaultTimeout when c is nil.
func NewStandardClient(c *http.Client) *StandardClient {
	if c == nil {
		c = &http.Client{Timeout: DefaultTimeout}
	}
	return &StandardClient{Client: c}
}

// Do sends an HTTP request.
func (c *StandardClient) Do(req *http.Request) (*http.Response, error) {
	return c.Client.Do(req)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// DecodeJSON closes resp.Body and decodes it into v. Non-2xx responses
// return a *StatusError.
func DecodeJSON(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty response body")
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// MockHTTPClient returns queued responses and records every request.
type MockHTTPClient struct {
	mu           sync.Mutex
	DoFunc       func(req *http.Request) (*http.Response, error)
	Requests     []*http.Request
	Bodies       [][]byte
	Responses    []*MockResponse
	responseIdx  int
	DefaultError error
}

// MockResponse defines a canned HTTP response for testing.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    http.Header
	Error      error
}

// NewMockHTTPClient creates a new mock HTTP client.
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{}
}

// AddResponse queues a response to be returned by subsequent requests.
func (m *MockHTTPClient) AddResponse(statusCode int, body string) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, &MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	})
	return m
}

// AddErrorResponse queues a transport error.
func (m *MockHTTPClient) AddErrorResponse(err error) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, &MockResponse{Error: err})
	return m
}

// Do records the request (and its body) and returns the next queued
// response, or an empty 200 once the queue is drained.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, body)

	if m.DoFunc != nil {
		req.Body = io.NopCloser(bytes.NewReader(body))
		return m.DoFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	if m.responseIdx < len(m.Responses) {
		resp := m.Responses[m.responseIdx]
		m.responseIdx++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return &http.Response{
			StatusCode: resp.StatusCode,
			Body:       io.NopCloser(bytes.NewBufferString(resp.Body)),
			Header:     resp.Headers,
			Request:    req,
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString("")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// GetRequest returns the nth recorded request.
func (m *MockHTTPClient) GetRequest(n int) *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.Requests) {
		return nil
	}
	return m.Requests[n]
}

// GetBody returns the body of the nth recorded request.
func (m *MockHTTPClient) GetBody(n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.Bodies) {
		return nil
	}
	return m.Bodies[n]
}

// RequestCount returns the number of recorded requests.
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
