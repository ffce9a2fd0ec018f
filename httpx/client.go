// Package httpx is the retrying JSON client the data providers share. Every
// failure it returns is already a classified record; providers never leak
// raw transport errors.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	lenderr "github.com/ggonzalez94/lend-risk/errors"
)

type Client struct {
	httpClient *http.Client
	retries    int
	userAgent  string
}

func New(timeout time.Duration, retries int) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		userAgent:  "lend-risk/1.0",
	}
}

func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) (http.Header, error) {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	opCtx := lenderr.NewContext("fetch")

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, lenderr.Wrap(lenderr.CodeDataFetchFailed, "request cancelled", ctx.Err(), opCtx)
			case <-time.After(backoff(attempt)):
			}
		}

		cloneReq := req.Clone(ctx)
		if req.Body != nil && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, lenderr.Wrap(lenderr.CodeDataFetchFailed, "clone request body", err, opCtx)
			}
			cloneReq.Body = body
		}

		resp, err := c.httpClient.Do(cloneReq)
		if err != nil {
			lastErr = mapNetError(err, opCtx)
			if attempt < c.retries {
				continue
			}
			return nil, lastErr
		}

		buf, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return resp.Header, lenderr.Wrap(lenderr.CodeDataFetchFailed, "read provider response", readErr, opCtx)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = lenderr.New(lenderr.CodeDataFetchFailed, "provider rate limited request", opCtx)
			if attempt < c.retries {
				continue
			}
			return resp.Header, lastErr
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = lenderr.New(lenderr.CodeDataFetchFailed, fmt.Sprintf("provider unavailable (status %d)", resp.StatusCode), opCtx)
			if attempt < c.retries {
				continue
			}
			return resp.Header, lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			rec := lenderr.New(lenderr.CodeDataFetchFailed, fmt.Sprintf("provider returned unexpected status %d", resp.StatusCode), opCtx)
			rec.Retryable = false
			return resp.Header, rec
		}

		if out == nil {
			return resp.Header, nil
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			return resp.Header, lenderr.New(lenderr.CodeDataFetchFailed, "provider returned empty response", opCtx)
		}
		if err := json.Unmarshal(buf, out); err != nil {
			return resp.Header, lenderr.Wrap(lenderr.CodeDataFetchFailed, "decode provider JSON", err, opCtx)
		}
		return resp.Header, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, lenderr.New(lenderr.CodeDataFetchFailed, "request failed", opCtx)
}

func DoBodyJSON(ctx context.Context, c *Client, method, url string, body []byte, headers map[string]string, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, lenderr.Wrap(lenderr.CodeDataFetchFailed, "build request", err, lenderr.NewContext("fetch"))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.DoJSON(ctx, req, out)
}

func mapNetError(err error, opCtx lenderr.Context) error {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return lenderr.Wrap(lenderr.CodeDataFetchFailed, "provider timeout", err, opCtx)
	}
	return lenderr.Wrap(lenderr.CodeDataFetchFailed, "provider request failed", err, opCtx)
}

func backoff(attempt int) time.Duration {
	base := 120 * time.Millisecond
	d := base * time.Duration(1<<uint(attempt-1))
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	jitter := time.Duration(rand.Intn(75)) * time.Millisecond
	return d + jitter
}
