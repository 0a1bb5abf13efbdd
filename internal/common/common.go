package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
)

// StatusError is returned when the upstream answers with a non-2xx code that is not worth retrying,
// or keeps failing after the last attempt.
type StatusError struct {
	Name string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error code %v returned from %v: %s", e.Code, e.Name, e.Body)
}

// IsStatus reports whether err is a StatusError carrying code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// GetWithRetry sends req, retrying network errors, 429 and 5xx responses with exponential backoff
// until the request context is done. Callers own closing the returned body.
func GetWithRetry(client *http.Client, req *http.Request, name string) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	ctx := req.Context()
	backoff := initialBackoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := client.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("error on %v api request: %w", name, err)
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			return resp, nil
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = &StatusError{Name: name, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
