package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusError is a response outside 2xx.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type page struct {
	body        []byte
	contentType string
	// finalURL is where redirects ended; links resolve against it
	finalURL string
}

// fetch GETs rawURL, re-trying transient failures as the retry policy allows.
func (e *Engine) fetch(ctx context.Context, rawURL string) (page, error) {
	attempts := e.opts.Retry.attempts()
	for n := 1; ; n++ {
		pg, err := e.fetchOnce(ctx, rawURL)
		if err == nil || n >= attempts || !retryable(err) {
			return pg, err
		}

		wait := e.opts.Retry.delay(n)
		e.logger.Debug("retrying fetch", zap.String("url", rawURL), zap.Int("attempt", n), zap.Error(err))
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return page{}, err
		case <-t.C:
		}
	}
}

func (e *Engine) fetchOnce(ctx context.Context, rawURL string) (page, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return page{}, err
	}
	req.Header.Set("User-Agent", e.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return page{}, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.opts.MaxBodyBytes))
	if err != nil {
		return page{}, fmt.Errorf("read body: %w", err)
	}
	return page{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		finalURL:    resp.Request.URL.String(),
	}, nil
}

// retryable reports whether another attempt could succeed: network errors,
// timeouts, 429 and 5xx.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// failureReason labels err for metrics.
func failureReason(err error) string {
	var se *StatusError
	var ne net.Error
	switch {
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &ne) && ne.Timeout():
		return "timeout"
	default:
		return "network"
	}
}
