// Copyright 2021 The OpenZipkin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package grpc contains B3 propagation middleware for gRPC servers and clients.
*/
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/stats"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/propagation"
	"github.com/openzipkin/b3-go/store"
)

type serverHandler struct {
	engine *b3.Engine
}

// NewServerHandler returns a stats.Handler which can be used with grpc.StatsHandler to add B3
// propagation to a gRPC server. Every RPC gets its own request scope holding the span started
// from the incoming metadata; the span ends when the RPC ends.
func NewServerHandler(e *b3.Engine) stats.Handler {
	return &serverHandler{engine: e}
}

// HandleConn exists to satisfy gRPC stats.Handler.
func (s *serverHandler) HandleConn(_ context.Context, _ stats.ConnStats) {
	// no-op
}

// TagConn exists to satisfy gRPC stats.Handler.
func (s *serverHandler) TagConn(ctx context.Context, _ *stats.ConnTagInfo) context.Context {
	// no-op
	return ctx
}

// HandleRPC ends the span once the RPC is done.
func (s *serverHandler) HandleRPC(ctx context.Context, rs stats.RPCStats) {
	if _, ok := rs.(*stats.End); ok {
		s.engine.EndSpan(ctx)
	}
}

// TagRPC opens the request scope and starts the span.
func (s *serverHandler) TagRPC(ctx context.Context, _ *stats.RPCTagInfo) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(nil)
	}

	ctx = store.NewContext(ctx)
	s.engine.StartSpan(ctx, propagation.ExtractGRPC(md))
	return ctx
}
