package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/niksmo/paintstore/internal/core/domain"
	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/niksmo/paintstore/pkg/retry"
)

var _ port.CatalogSource = (*Client)(nil)

const (
	productsPath = "/products?limit=1210&page=1"
	toolsPath    = "/tools"

	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	maxErrorBody       = 512
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrUnknownPayload   = errors.New("unrecognized list payload")
)

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", ErrUnexpectedStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

type Opt func(*Client)

func HTTPClientOpt(c *http.Client) Opt {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// TimeoutOpt bounds a single request attempt.
func TimeoutOpt(d time.Duration) Opt {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func RetryOpt(c retry.RetryConfig) Opt {
	return func(cl *Client) {
		cl.retry = c
	}
}

// A Client reads the product and tool lists of the upstream catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      retry.RetryConfig
}

func New(baseURL string, opts ...Opt) (*Client, error) {
	const op = "catalogapi.New"

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: base url must be http(s): %q", op, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		retry: retry.RetryConfig{
			MaxAttempts: defaultMaxAttempts,
			Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry.ShouldRetry = shouldRetry
	return c, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Client.ListProducts"

	var ps list[domain.Product]
	if err := c.getJSON(ctx, productsPath, &ps); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (c *Client) ListTools(ctx context.Context) ([]domain.Tool, error) {
	const op = "Client.ListTools"

	var ts list[domain.Tool]
	if err := c.getJSON(ctx, toolsPath, &ts); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ts, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	const op = "Client.getJSON"
	log := slog.With("op", op, "path", path)

	attempt := 0
	return retry.Do(ctx, c.retry, func() error {
		attempt++
		err := c.get(ctx, path, v)
		if err != nil && shouldRetry(err) {
			log.Warn("catalog request failed", "attempt", attempt, "err", err)
		}
		return err
	})
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return permanent{err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return permanent{fmt.Errorf("invalid catalog payload: %w", err)}
	}
	return nil
}

// A list decodes a bare JSON array or an object carrying the array
// under items, products or data.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	text := bytes.TrimSpace(b)
	if len(text) > 0 && text[0] == '[' {
		return json.Unmarshal(text, (*[]T)(l))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(text, &envelope); err != nil {
		return err
	}
	for _, key := range [...]string{"items", "products", "data"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if v := bytes.TrimSpace(raw); len(v) > 0 && v[0] == '[' {
			return json.Unmarshal(v, (*[]T)(l))
		}
	}
	return ErrUnknownPayload
}

type permanent struct {
	error
}

func (p permanent) Unwrap() error {
	return p.error
}

// shouldRetry accepts transport failures and 5xx answers.
func shouldRetry(err error) bool {
	if errors.As(err, new(permanent)) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}
