package sidecar

import (
	"net"
	"time"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs"
	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/address"
	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/compressor"
	"github.com/sbilibin2017/telemetry-sidecar/internal/configs/hasher"
	grpcTransport "github.com/sbilibin2017/telemetry-sidecar/internal/configs/transport/grpc"
	httpTransport "github.com/sbilibin2017/telemetry-sidecar/internal/configs/transport/http"
	"github.com/sbilibin2017/telemetry-sidecar/internal/facades"
	grpcFacades "github.com/sbilibin2017/telemetry-sidecar/internal/facades/grpc"
	httpFacades "github.com/sbilibin2017/telemetry-sidecar/internal/facades/http"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	"github.com/sbilibin2017/telemetry-sidecar/internal/workers"
)

const forwardTimeout = 10 * time.Second

// newForwarder picks the sink by the collector address scheme. The returned
// function releases the sink's connections.
func newForwarder(cfg *configs.SidecarConfig) (workers.Forwarder, func(), error) {
	addr, err := address.New(cfg.CollectorAddress)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case addr.IsZero():
		return facades.NewMetricLogFacade(logger.Log), func() {}, nil

	case addr.Scheme == address.SchemeGRPC:
		conn, err := grpcTransport.New(addr.Address,
			grpcTransport.WithRetryPolicy(grpcTransport.RetryPolicy{
				Count:   3,
				Wait:    500 * time.Millisecond,
				MaxWait: 5 * time.Second,
			}),
		)
		if err != nil {
			return nil, nil, err
		}
		return grpcFacades.NewMetricGRPCFacade(conn), func() { conn.Close() }, nil

	default:
		client, err := httpTransport.New(addr.URL(),
			httpTransport.WithRetryPolicy(httpTransport.RetryPolicy{
				Count:   3,
				Wait:    500 * time.Millisecond,
				MaxWait: 5 * time.Second,
			}),
			httpTransport.WithTimeout(forwardTimeout),
		)
		if err != nil {
			return nil, nil, err
		}

		gz, err := compressor.NewCompressor()
		if err != nil {
			return nil, nil, err
		}

		opts := []httpFacades.Opt{httpFacades.WithCompressor(gz)}
		if cfg.Key != "" {
			opts = append(opts, httpFacades.WithHasher(hasher.New(cfg.Key)))
		}
		if ip := localIP(); ip != "" {
			opts = append(opts, httpFacades.WithRealIP(ip))
		}
		return httpFacades.NewMetricHTTPFacade(client, opts...), func() {}, nil
	}
}

// localIP returns the first non-loopback IPv4 address of the host, or "".
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return ""
}
