package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"vaquero/internal"
	"vaquero/internal/config"
)

type Client struct {
	httpClient  *http.Client
	limiter     *RateLimiter
	maxAttempts int
	backoffBase time.Duration
}

func NewClient(cfg config.Config) *Client {
	attempts := cfg.SourceMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: time.Duration(cfg.SourceTimeoutMs) * time.Millisecond},
		limiter:     NewRateLimiter(cfg.SourceRateLimitRPS),
		maxAttempts: attempts,
		backoffBase: 250 * time.Millisecond,
	}
}

// Get downloads target, retrying transport errors and 429/5xx responses.
// Any final failure is a *internal.FetchError.
func (c *Client) Get(ctx context.Context, target string) ([]byte, error) {
	log := logrus.WithFields(logrus.Fields{"component": "source", "target": target})

	var lastErr error
	attempt := 0
	for attempt < c.maxAttempts {
		attempt++
		if err := c.limiter.WaitTurn(ctx); err != nil {
			lastErr = err
			break
		}

		body, retry, err := c.do(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt >= c.maxAttempts || ctx.Err() != nil {
			break
		}

		backoff := c.backoffBase*time.Duration(1<<(attempt-1)) + time.Duration(rand.Intn(100))*time.Millisecond
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "backoff": backoff}).Warn("source request failed, retrying")
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(backoff):
		}
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = errors.New("source request failed")
	}
	return nil, &internal.FetchError{Source: target, Attempts: attempt, Err: lastErr}
}

func (c *Client) do(ctx context.Context, target string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, text/html;q=0.9, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, true, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return body, false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
