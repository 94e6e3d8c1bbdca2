package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/stats"

	b3 "github.com/openzipkin/b3-go"
)

type ClientHandler interface {
	stats.Handler
}

type clientHandler struct {
	engine *b3.Engine
}

// NewClientHandler returns a stats.Handler which can be used with grpc.WithStatsHandler to add
// B3 propagation to a gRPC client. Every RPC runs in a sub-span of the span found in the
// context of the call; the sub-span is closed when the RPC ends.
func NewClientHandler(e *b3.Engine) ClientHandler {
	return &clientHandler{engine: e}
}

// HandleConn exists to satisfy gRPC stats.Handler.
func (c *clientHandler) HandleConn(_ context.Context, _ stats.ConnStats) {
	// no-op
}

// TagConn exists to satisfy gRPC stats.Handler.
func (c *clientHandler) TagConn(ctx context.Context, _ *stats.ConnTagInfo) context.Context {
	// no-op
	return ctx
}

// HandleRPC closes the sub-span once the RPC is done.
func (c *clientHandler) HandleRPC(ctx context.Context, rs stats.RPCStats) {
	if _, ok := rs.(*stats.End); ok {
		c.engine.EndSubspan(ctx)
	}
}

// TagRPC opens the sub-span and adds its headers to the outgoing metadata.
func (c *clientHandler) TagRPC(ctx context.Context, _ *stats.RPCTagInfo) context.Context {
	headers, ctx := c.engine.StartSubspanFromContext(ctx, nil)
	return withOutgoingHeaders(ctx, headers)
}

// UnaryClientInterceptor returns a grpc.UnaryClientInterceptor which wraps every call in a
// sub-span of the span found in the context of the call.
func UnaryClientInterceptor(e *b3.Engine) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return e.WithSubspan(ctx, nil, func(ctx context.Context, headers b3.Headers) error {
			return invoker(withOutgoingHeaders(ctx, headers), method, req, reply, cc, opts...)
		})
	}
}

// StreamClientInterceptor returns a grpc.StreamClientInterceptor which opens a sub-span for
// every new stream. The headers travel with the stream's initial metadata, so the sub-span is
// closed as soon as the stream is established.
func StreamClientInterceptor(e *b3.Engine) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		headers, ctx := e.StartSubspanFromContext(ctx, nil)
		defer e.EndSubspan(ctx)

		return streamer(withOutgoingHeaders(ctx, headers), desc, cc, method, opts...)
	}
}
