package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bufSize = 1024 * 1024

func startBufServer(t *testing.T) *bufconn.Listener {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	s := gogrpc.NewServer()
	healthpb.RegisterHealthServer(s, health.NewServer())
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	return lis
}

func TestWithRetryPolicy(t *testing.T) {
	dialOpt, err := WithRetryPolicy(RetryPolicy{
		Count:   4,
		Wait:    100 * time.Millisecond,
		MaxWait: 300 * time.Millisecond,
	})()
	require.NoError(t, err)
	require.NotNil(t, dialOpt)
}

func TestWithRetryPolicy_Empty(t *testing.T) {
	dialOpt, err := WithRetryPolicy(RetryPolicy{})()
	require.NoError(t, err)
	assert.Nil(t, dialOpt)
}

func TestWithContextDialer_Nil(t *testing.T) {
	dialOpt, err := WithContextDialer(nil)()
	require.NoError(t, err)
	assert.Nil(t, dialOpt)
}

func TestNew_WithOptions(t *testing.T) {
	lis := startBufServer(t)

	conn, err := New("passthrough:///bufnet",
		WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		WithRetryPolicy(RetryPolicy{
			Count:   2,
			Wait:    100 * time.Millisecond,
			MaxWait: 1 * time.Second,
		}),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestNew_ErrorInOption(t *testing.T) {
	errOpt := func() (gogrpc.DialOption, error) {
		return nil, assert.AnError
	}
	conn, err := New("target", errOpt)
	require.Error(t, err)
	assert.Nil(t, conn)
}
