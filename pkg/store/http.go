package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Request attempts made by HTTPStore for transient failures.
const (
	httpAttempts = 3
	httpDelay    = 250 * time.Millisecond
)

// HTTPStore is a Store backed by a remote nodeflow server. Network errors
// and 5xx responses are retried; the server's error codes are passed
// through, so a missing key is still NOT_FOUND.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a store for the server at baseURL, for example
// "http://localhost:8080". A nil client uses a client with a 30s timeout.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPStore{
		base:   strings.TrimSuffix(baseURL, "/") + "/documents",
		client: client,
	}
}

// apiError is the error body written by the server.
type apiError struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Problems []string `json:"problems"`
}

func (s *HTTPStore) url(key string) string {
	return s.base + "/" + url.PathEscape(key)
}

// do sends one request with retries and returns the response body of a
// successful call.
func (s *HTTPStore) do(ctx context.Context, method, target string, body []byte, want int) ([]byte, error) {
	var out []byte
	err := RetryWithBackoff(ctx, httpAttempts, httpDelay, func() error {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, r)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/xml")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return Retryable(fmt.Errorf("%s %s: %w", method, target, err))
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return Retryable(fmt.Errorf("%s %s: read body: %w", method, target, err))
		}
		if resp.StatusCode == want {
			out = data
			return nil
		}
		return checkStatus(resp.StatusCode, data)
	})
	return out, err
}

// checkStatus turns an unexpected response into an error carrying the
// server's code.
func checkStatus(status int, body []byte) error {
	var ae apiError
	if json.Unmarshal(body, &ae) != nil || ae.Code == "" {
		ae = apiError{Error: http.StatusText(status), Code: string(errs.ErrCodeInternal)}
	}
	msg := ae.Error
	if len(ae.Problems) > 0 {
		msg += ": " + strings.Join(ae.Problems, "; ")
	}
	err := errs.New(errs.Code(ae.Code), "server: %s", msg)
	if status >= http.StatusInternalServerError {
		return Retryable(err)
	}
	return err
}

// Get implements Store.
func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errs.ValidateKey(key); err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodGet, s.url(key), nil, http.StatusOK)
}

// Put implements Store. The server rejects documents with structural
// problems as MALFORMED_DOCUMENT.
func (s *HTTPStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.do(ctx, http.MethodPut, s.url(key), data, http.StatusCreated)
	return err
}

// Delete implements Store.
func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.do(ctx, http.MethodDelete, s.url(key), nil, http.StatusNoContent)
	return err
}

// List implements Store.
func (s *HTTPStore) List(ctx context.Context) ([]string, error) {
	data, err := s.do(ctx, http.MethodGet, s.base, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "decode key list")
	}
	return resp.Keys, nil
}

// Close releases idle connections.
func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

var _ Store = (*HTTPStore)(nil)
