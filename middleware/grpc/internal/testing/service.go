package testing

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	b3 "github.com/openzipkin/b3-go"
)

// Call is what HealthService observed while serving an RPC.
type Call struct {
	Metadata metadata.MD
	Values   b3.SpanValues
}

// HealthService is a grpc_health_v1.HealthServer recording the incoming
// metadata and the B3 values of every call.
type HealthService struct {
	grpc_health_v1.UnimplementedHealthServer

	Engine *b3.Engine

	mu    sync.Mutex
	calls []Call
}

func (s *HealthService) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	s.record(ctx)

	if req.GetService() == "fail" {
		return nil, status.Error(codes.Aborted, "fail")
	}
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *HealthService) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	s.record(stream.Context())

	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}

// Last returns the most recent call.
func (s *HealthService) Last() Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}
	}
	return s.calls[len(s.calls)-1]
}

// Calls returns a copy of all recorded calls.
func (s *HealthService) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Reset forgets all recorded calls.
func (s *HealthService) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *HealthService) record(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Metadata: md.Copy(), Values: s.Engine.Values(ctx)})
	s.mu.Unlock()
}
