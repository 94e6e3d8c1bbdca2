// Copyright 2022 The OpenZipkin Authors
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
Package http contains B3 propagation middleware for net/http servers and
clients.
*/
package http

import (
	"net/http"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/propagation"
	"github.com/openzipkin/b3-go/store"
)

type handler struct {
	engine *b3.Engine
	next   http.Handler
}

// NewServerMiddleware returns a http.Handler middleware which starts a B3
// span for every request and ends it once the wrapped handler returns.
func NewServerMiddleware(e *b3.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &handler{
			engine: e,
			next:   next,
		}
	}
}

// ServeHTTP implements http.Handler.
func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// every request gets its own scope
	ctx := store.NewContext(r.Context())

	// try to extract B3 Headers from upstream
	h.engine.StartSpan(ctx, propagation.ExtractHTTP(r.Header))
	defer h.engine.EndSpan(ctx)

	// call next http Handler func using our updated context.
	h.next.ServeHTTP(w, r.WithContext(ctx))
}
