// Package remote is a gRPC client for the phonebook health service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"phonebook.org/internal/audit"
)

// ServiceName is the health service name the API registers.
const ServiceName = "phonebook-api"

var (
	ErrNotServing     = errors.New("remote: service not serving")
	ErrUnknownService = errors.New("remote: unknown service")
)

// Client wraps a gRPC health connection.
type Client struct {
	conn *grpc.ClientConn
	svc  healthpb.HealthClient
}

// Dial creates a client. Without options the transport is insecure.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, svc: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Check asks the server whether service is serving. An empty service checks
// the server as a whole.
func (c *Client) Check(ctx context.Context, service string) error {
	resp, err := c.svc.Check(outgoingWithRequestID(ctx), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return mapHealthError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}
	return nil
}

func outgoingWithRequestID(ctx context.Context) context.Context {
	if id := audit.RequestIDFromContext(ctx); id != "" {
		return metadata.AppendToOutgoingContext(ctx, "x-request-id", id)
	}
	return ctx
}

func mapHealthError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrUnknownService, st.Message())
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrNotServing, st.Message())
	}
	return err
}

// WithTimeout returns a context with a default deadline for CLI tools.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(parent, d)
}
