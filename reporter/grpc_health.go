package reporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	logger "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/TEENet-io/wormhole-gateway/custodian"
)

// ServiceName is the health service key of the gateway. The empty key
// reports the process itself.
const ServiceName = "wormhole.gateway"

// HealthReporter exposes the standard grpc health service. The gateway
// reports SERVING once its custodian record is initialized and readable.
type HealthReporter struct {
	source Source
	server *grpc.Server
	health *health.Server
}

func NewHealthReporter(source Source) *HealthReporter {
	h := &HealthReporter{
		source: source,
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	h.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Refresh recomputes the gateway status from the source.
func (h *HealthReporter) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if _, err := h.source.Custodian(); err != nil {
		if !errors.Is(err, custodian.ErrNotInitialized) {
			logger.WithError(err).Warn("health check cannot read custodian")
		}
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch refreshes the status every interval until ctx is cancelled.
func (h *HealthReporter) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh()
		}
	}
}

// Serve blocks until Stop is called.
func (h *HealthReporter) Serve(lis net.Listener) error {
	logger.WithField("address", lis.Addr().String()).Info("grpc health listening")
	return h.server.Serve(lis)
}

func (h *HealthReporter) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}

// WaitForHealth polls the health service on conn until service reports
// SERVING or ctx ends.
func WaitForHealth(ctx context.Context, conn *grpc.ClientConn, service string) error {
	client := healthpb.NewHealthClient(conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: service})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}
		if err != nil {
			logger.WithError(err).Debug("waiting for grpc health")
		} else {
			logger.WithField("status", resp.GetStatus().String()).Debug("waiting for grpc health")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for grpc health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}
