package http

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Opt configures a *resty.Client and may return an error.
type Opt func(*resty.Client) error

// New creates a resty client for the collector at baseURL.
func New(baseURL string, opts ...Opt) (*resty.Client, error) {
	client := resty.New().SetBaseURL(baseURL)

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// RetryPolicy describes the parameters for HTTP request retry logic.
type RetryPolicy struct {
	Count   int           // Number of retry attempts
	Wait    time.Duration // Wait time between retries
	MaxWait time.Duration // Maximum wait time between retries
}

// WithRetryPolicy applies the first policy with at least one positive field.
// Transport errors and 5xx responses are retried. Without a valid policy the
// client is left unchanged.
func WithRetryPolicy(policies ...RetryPolicy) Opt {
	return func(c *resty.Client) error {
		for _, policy := range policies {
			if policy.Count <= 0 && policy.Wait <= 0 && policy.MaxWait <= 0 {
				continue
			}
			if policy.Count > 0 {
				c.SetRetryCount(policy.Count)
			}
			if policy.Wait > 0 {
				c.SetRetryWaitTime(policy.Wait)
			}
			if policy.MaxWait > 0 {
				c.SetRetryMaxWaitTime(policy.MaxWait)
			}
			c.AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
			break
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(timeout time.Duration) Opt {
	return func(c *resty.Client) error {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
		return nil
	}
}
