package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// StatusError is a non-2xx answer from an upstream API.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// clientSide reports whether err was caused by the request rather than the
// upstream being unhealthy.
func clientSide(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
}

// HTTPClient issues GET requests through a circuit breaker. 4xx answers other
// than 429 do not count as failures.
type HTTPClient struct {
	service string
	http    *http.Client
	breaker *Breaker[[]byte]
}

// NewHTTPClient creates a client named service with the given timeout.
func NewHTTPClient(service string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		service: service,
		http:    &http.Client{Timeout: timeout},
		breaker: New[[]byte](Settings{
			Name: service,
			IsSuccessful: func(err error) bool {
				return err == nil || clientSide(err) || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// GetJSON fetches rawURL and decodes the body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, rawURL)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}

// State exposes the breaker state; /health reports it per upstream.
func (c *HTTPClient) State() string { return c.breaker.State() }

func (c *HTTPClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.service, err)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Debug("upstream error", "service", c.service, "status", resp.StatusCode)
		return nil, &StatusError{Service: c.service, Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
