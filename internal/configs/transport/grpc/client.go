package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Opt returns a grpc.DialOption or an error. A nil option is skipped.
type Opt func() (grpc.DialOption, error)

// New creates a gRPC client for target. Transport credentials are insecure:
// the collector is reached over a trusted network. The connection is
// established lazily on the first call.
func New(target string, opts ...Opt) (*grpc.ClientConn, error) {
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}

	for _, opt := range opts {
		dialOpt, err := opt()
		if err != nil {
			return nil, err
		}
		if dialOpt != nil {
			dialOpts = append(dialOpts, dialOpt)
		}
	}

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client for %s: %w", target, err)
	}

	return conn, nil
}

// RetryPolicy configures parameters for retrying gRPC calls.
type RetryPolicy struct {
	Count   int           // Maximum number of attempts
	Wait    time.Duration // Initial backoff duration before retry
	MaxWait time.Duration // Maximum backoff duration
}

// WithRetryPolicy configures retries of UNAVAILABLE calls through the service
// config. If all fields are zero or negative, no retry configuration is applied.
func WithRetryPolicy(rp RetryPolicy) Opt {
	return func() (grpc.DialOption, error) {
		if rp.Count <= 0 && rp.Wait <= 0 && rp.MaxWait <= 0 {
			return nil, nil
		}
		if rp.Count < 2 {
			rp.Count = 2
		}
		if rp.Wait <= 0 {
			rp.Wait = 100 * time.Millisecond
		}
		if rp.MaxWait < rp.Wait {
			rp.MaxWait = rp.Wait
		}

		cfg := fmt.Sprintf(`{
			"methodConfig": [{
				"name": [{}],
				"retryPolicy": {
					"maxAttempts": %d,
					"initialBackoff": "%.3fs",
					"maxBackoff": "%.3fs",
					"backoffMultiplier": 2,
					"retryableStatusCodes": ["UNAVAILABLE"]
				}
			}]
		}`, rp.Count, rp.Wait.Seconds(), rp.MaxWait.Seconds())

		return grpc.WithDefaultServiceConfig(cfg), nil
	}
}

// WithContextDialer replaces the network dialer, e.g. for in-memory listeners.
func WithContextDialer(dialer func(context.Context, string) (net.Conn, error)) Opt {
	return func() (grpc.DialOption, error) {
		if dialer == nil {
			return nil, nil
		}
		return grpc.WithContextDialer(dialer), nil
	}
}
