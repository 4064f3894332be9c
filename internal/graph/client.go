// Package graph is the wire delivery client for the note-taking
// service's HTTP API: page creation, anchor-targeted appends, and the
// lookups and cleanup utilities around them.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client executes requests against the notes API with a shared retry
// policy: 429/503 wait out Retry-After and retry up to the bound, 401
// fails immediately, anything else non-2xx fails without retrying.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	retry       RetryPolicy
	log         *slog.Logger

	// Stats aggregates per-request latency and outcome counters.
	Stats *DeliveryStats
}

func NewClient(baseURL, accessToken string, retry RetryPolicy, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retry.MaxRetries <= 0 {
		retry = DefaultRetryPolicy()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		retry: retry,
		log:   log,
		Stats: NewDeliveryStats(time.Hour),
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Part is one multipart body part. Names are request-local: the markup
// part references binaries as name:<part-name>, and the same names may
// be reused freely across separate requests.
type Part struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

func encodeMultipart(parts []Part) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Name, p.Filename))
		h.Set("Content-Type", p.ContentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.Name, err)
		}
		if _, err := pw.Write(p.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", p.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// do sends one request, recovering from retryable responses within the
// policy bound. The body is kept as bytes so each attempt resends an
// identical payload.
func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte) (int, []byte, error) {
	for attempt := 1; attempt <= c.retry.MaxRetries; attempt++ {
		start := time.Now()

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return 0, nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
		}
		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if err != nil {
			return 0, nil, fmt.Errorf("read response: %w", err)
		}
		elapsed := time.Since(start).Milliseconds()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable:
			wait := c.retryAfter(resp)
			c.Stats.RecordRetry()
			c.log.Warn("retryable response",
				"method", method, "url", url,
				"status", resp.StatusCode,
				"attempt", attempt, "max", c.retry.MaxRetries,
				"wait", wait, "elapsed_ms", elapsed,
			)
			if attempt == c.retry.MaxRetries {
				c.Stats.RecordFailure()
				return resp.StatusCode, respBody, fmt.Errorf(
					"%s %s failed after %d attempts: %w", method, url, attempt,
					&RetryableError{StatusCode: resp.StatusCode, RetryAfter: wait, Message: string(respBody)})
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			}
			continue

		case resp.StatusCode == http.StatusUnauthorized:
			c.Stats.RecordFailure()
			c.log.Error("unauthorized",
				"method", method, "url", url, "elapsed_ms", elapsed)
			return resp.StatusCode, respBody,
				&AuthError{StatusCode: resp.StatusCode, Message: string(respBody)}

		case resp.StatusCode < 200 || resp.StatusCode > 299:
			c.Stats.RecordFailure()
			c.log.Error("request failed",
				"method", method, "url", url,
				"status", resp.StatusCode, "elapsed_ms", elapsed,
				"body", truncate(string(respBody), 1000),
			)
			return resp.StatusCode, respBody,
				&StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}

		c.Stats.Record(elapsed)
		c.log.Info("request ok",
			"method", method, "url", url,
			"status", resp.StatusCode, "elapsed_ms", elapsed)
		return resp.StatusCode, respBody, nil
	}
	// Unreachable: the loop returns on every path of the final attempt.
	return 0, nil, fmt.Errorf("%s %s: retry loop exhausted", method, url)
}

func (c *Client) retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.retry.DefaultRetryAfter
}

// doMultipart encodes parts and sends them, logging a content-free
// summary of the payload (never the binaries themselves).
func (c *Client) doMultipart(ctx context.Context, method, url string, parts []Part) (int, []byte, error) {
	body, contentType, err := encodeMultipart(parts)
	if err != nil {
		return 0, nil, err
	}
	c.log.Debug("multipart request",
		"method", method, "url", url, "parts", summarizeParts(parts))
	return c.do(ctx, method, url, contentType, body)
}

// getJSON sends a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	_, body, err := c.do(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// summarizeParts renders multipart payload metadata for logging.
func summarizeParts(parts []Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, fmt.Sprintf("%s %s %s %dB", p.Name, p.Filename, p.ContentType, len(p.Data)))
	}
	return out
}
