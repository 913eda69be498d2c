// Package httpclient is the HTTP facade shared by all CI backends.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cancelbot/src/logger"
	"cancelbot/src/sanitize"
)

// UserAgent identifies the tool to every CI backend.
const UserAgent = "cancelbot (github.com/rust-lang/rust-central-station)"

// Header is a single request header.
type Header struct {
	Key   string
	Value string
}

// Response is a successful (2xx) HTTP response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues requests against one backend base URL with a fixed set of headers.
// It is safe for concurrent use; the underlying http.Client may be shared between backends.
type Client struct {
	baseURL    string
	headers    []Header
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a client for baseURL. A nil httpClient gets a default one,
// a nil log discards request logging.
func New(baseURL string, httpClient *http.Client, log logger.Logger, headers ...Header) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    headers,
		httpClient: httpClient,
		logger:     log,
	}
}

// BaseURL returns the base URL relative paths are joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves path against the base URL. Absolute URLs are returned unchanged.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do performs a request and returns the response if the status is 2xx.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, extra ...Header) (*Response, error) {
	url := c.URL(path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	for _, h := range c.headers {
		req.Header.Set(h.Key, h.Value)
	}
	for _, h := range extra {
		req.Header.Set(h.Key, h.Value)
	}

	c.logger.Debug("fetching: %s %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	c.logger.Debug("finished: %s %s (%d)", method, url, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       sanitize.Body(data),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// GetJSON performs a GET and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &DecodeError{URL: c.URL(path), Body: sanitize.Body(resp.Body), Err: err}
	}
	return nil
}
