package backend

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
	"strconv"
	"strings"
	"time"
)

// Observer records the latency of every backend call.
type Observer interface {
	ObserveBackend(operation, status string, seconds float64)
}

// Client talks to the Spot Directory Service and the Reservation API. Calls are never
// retried; callers decide whether to repeat them.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Token    string
	Location *time.Location
	Observer Observer
	Logger   *slog.Logger
}

func New(baseURL, token string, timeout time.Duration, loc *time.Location) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: timeout},
		Token:    token,
		Location: loc,
	}
}

type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	headers  map[string]string
	notFound error
}

// do sends req and decodes a 2xx JSON answer into out. Other answers become *Error.
func (c *Client) do(ctx context.Context, req request, out any) error {
	start := time.Now()
	status := "transport"
	defer func() {
		if c.Observer != nil {
			c.Observer.ObserveBackend(req.op, status, time.Since(start).Seconds())
		}
	}()

	target := req.path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.BaseURL + req.path
	}
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("backend: %s: encode: %w", req.op, err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Token "+c.Token)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log().WarnContext(ctx, "backend unreachable", "op", req.op, "error", err)
		return &Error{Op: req.op, Kind: KindUnavailable, Message: unavailableMessage, cause: err}
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Op: req.op, Kind: KindUnavailable, Status: resp.StatusCode, Message: unavailableMessage, cause: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Op: req.op, Kind: KindUnavailable, Status: resp.StatusCode, Message: "unexpected response from the reservation service", cause: err}
		}
		return nil
	}
	apiErr := classify(req.op, resp.StatusCode, raw, req.notFound)
	if apiErr.Kind == KindUnavailable {
		c.log().WarnContext(ctx, "backend error", "op", req.op, "status", resp.StatusCode, "body", truncate(string(raw), 256))
	}
	return apiErr
}

func (c *Client) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c *Client) log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// flexString decodes a JSON string or number into its textual form. The backend renders
// ids as numbers and decimals as strings, inconsistently across endpoints.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("backend: expected string or number")
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }
