// Package fetcher is the shared HTTP helper every API call goes through.
// It attaches the current session token, decodes JSON responses and turns
// non-2xx statuses into errors carrying the backend's message.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AuthHeader is the custom header the backend reads the bearer token from.
const AuthHeader = "auth-token"

var (
	// ErrUnauthorized is wrapped into errors for 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmptyBody is returned when a payload was expected but the server
	// sent none.
	ErrEmptyBody = errors.New("server returned no data")
)

// APIError is a non-2xx response. Message is the JSON body's "error" field
// when present, else a generic status-coded message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// TokenSource supplies the current session token; empty string means the
// request goes out anonymous.
type TokenSource func() string

type Client struct {
	baseURL    string
	httpClient *http.Client

	// Tokens supplies the session token attached to every request.
	Tokens TokenSource
	// OnUnauthorized fires when a request that carried a token comes back
	// 401. Anonymous 401s (a failed login) never trigger it.
	OnUnauthorized func()
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Anonymous returns a client sharing this client's transport that sends no
// token and never fires the unauthorized hook. The auth endpoints go through
// it: a rejected login is a plain error, not an authorization failure of
// whatever session already exists.
func (c *Client) Anonymous() *Client {
	return &Client{baseURL: c.baseURL, httpClient: c.httpClient}
}

// Do issues method path with an optional JSON body and decodes the response
// into out. A nil out tolerates an empty body (204 and friends); a non-nil
// out with an empty body is ErrEmptyBody.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var token string
	if c.Tokens != nil {
		token = c.Tokens()
	}
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp),
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return apiErr
	}

	if resp.StatusCode == http.StatusNoContent {
		if out != nil {
			return ErrEmptyBody
		}
		return nil
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

func errorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "Unauthorized"
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}
