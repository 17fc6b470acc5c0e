package grpc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	transport "github.com/sbilibin2017/telemetry-sidecar/internal/configs/transport/grpc"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

type collectorServer interface {
	Forward(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
}

var collectorServiceDesc = grpc.ServiceDesc{
	ServiceName: "telemetry.v1.Collector",
	HandlerType: (*collectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Forward",
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.(collectorServer).Forward(ctx, in)
			},
		},
	},
}

// fakeCollector records requests and fails while err is set.
type fakeCollector struct {
	mu       sync.Mutex
	requests []*structpb.Struct
	err      error
}

func (c *fakeCollector) Forward(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	c.requests = append(c.requests, in)
	return &emptypb.Empty{}, nil
}

func startCollector(t *testing.T, collector *fakeCollector) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	srv.RegisterService(&collectorServiceDesc, collector)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := transport.New("passthrough:///bufnet",
		transport.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestMetricGRPCFacade_Forward(t *testing.T) {
	collector := &fakeCollector{}
	f := NewMetricGRPCFacade(startCollector(t, collector))

	id := int64(4)
	ts := uint64(1556813561098)
	metric := &models.Metric{
		ID:        &id,
		Name:      "cpu",
		Field:     "usage",
		Tags:      models.Tags{{Key: "region", Value: "us-ashburn-1"}},
		Value:     5,
		Timestamp: &ts,
	}

	require.NoError(t, f.Forward(context.Background(), metric))

	require.Len(t, collector.requests, 1)
	got := collector.requests[0].AsMap()
	assert.Equal(t, "4", got["id"])
	assert.Equal(t, "cpu", got["name"])
	assert.Equal(t, "usage", got["field"])
	assert.Equal(t, "5", got["value"])
	assert.Equal(t, "1556813561098", got["timestamp"])
	assert.Equal(t, []any{map[string]any{"key": "region", "value": "us-ashburn-1"}}, got["tags"])
}

func TestMetricGRPCFacade_ForwardError(t *testing.T) {
	collector := &fakeCollector{err: status.Error(codes.Unavailable, "collector overloaded")}
	f := NewMetricGRPCFacade(startCollector(t, collector))

	err := f.Forward(context.Background(), &models.Metric{Name: "up", Value: 1})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestToStruct_LargeValuesKeepPrecision(t *testing.T) {
	ts := uint64(1<<63 - 1)
	s, err := ToStruct(&models.Metric{Name: "big", Value: 1<<53 + 1, Timestamp: &ts})
	require.NoError(t, err)

	got := s.AsMap()
	assert.Equal(t, "9007199254740993", got["value"])
	assert.Equal(t, "9223372036854775807", got["timestamp"])
	assert.Equal(t, "0", got["id"])
	assert.Equal(t, []any{}, got["tags"])
	assert.NotContains(t, got, "field")
}
