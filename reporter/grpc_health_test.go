package reporter

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

func TestHealthReporter(t *testing.T) {
	g := newTestGateway(t)
	h := NewHealthReporter(g)

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = h.Serve(lis)
	}()
	defer h.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	check := func() *healthpb.HealthCheckResponse {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return resp
	}

	notServing := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
	serving := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}

	assert.True(t, proto.Equal(notServing, check()))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, h.Refresh())
	assert.True(t, proto.Equal(notServing, check()))

	initialize(t, g, randAddr())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Refresh())
	assert.True(t, proto.Equal(serving, check()))

	// the process itself is always serving
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
