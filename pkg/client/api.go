package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// statusError is a retryable server failure that still carried a body.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server responded %d", e.status)
}

type apiClient struct {
	baseURL string
	http    *http.Client
	retries int
	backoff time.Duration
}

// post sends in as JSON and decodes the response into out. Transport errors
// and 5xx other than 503 are retried. A non-2xx response with a body is not
// an error: the server always answers with a displayable message.
func (a *apiClient) post(ctx context.Context, path string, in, out interface{}) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	operation := func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return 0, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, backoff.Permanent(ctx.Err())
			}
			return 0, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, err
		}
		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusServiceUnavailable {
			return resp.StatusCode, &statusError{status: resp.StatusCode, body: body}
		}
		if err := decode(body, out); err != nil {
			return resp.StatusCode, backoff.Permanent(err)
		}
		return resp.StatusCode, nil
	}

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(a.backoff)),
		backoff.WithMaxTries(uint(a.retries+1)),
	)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && decode(se.body, out) == nil {
			return se.status, nil
		}
		return status, err
	}
	return status, nil
}

func decode(body []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
