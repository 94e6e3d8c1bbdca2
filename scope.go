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

package b3

import (
	"context"
	"errors"

	"github.com/openzipkin/b3-go/store"
)

// WithSpan runs fn inside a span started from the inbound headers. If ctx
// has no request scope a new one is opened for the duration of fn. The span
// is ended on every exit path, including panics.
func (e *Engine) WithSpan(ctx context.Context, inbound Headers, fn func(ctx context.Context) error) error {
	if _, err := e.options.resolve(ctx); errors.Is(err, store.ErrNoActiveRequest) {
		ctx = store.NewContext(ctx)
	}

	e.StartSpan(ctx, inbound)
	defer e.EndSpan(ctx)

	return fn(ctx)
}

// WithSubspan runs fn inside a subspan, handing it the headers for the
// downstream call and a context through which Values reports the subspan.
// The subspan is closed on every exit path, including panics. Concurrent
// calls on the same context each get their own subspan.
//
//	err := engine.WithSubspan(ctx, nil, func(ctx context.Context, h b3.Headers) error {
//		return callDownstream(ctx, h)
//	})
func (e *Engine) WithSubspan(ctx context.Context, outbound Headers, fn func(ctx context.Context, headers Headers) error) error {
	headers, ctx := e.StartSubspanFromContext(ctx, outbound)
	defer e.EndSubspan(ctx)

	return fn(ctx, headers)
}

// BeforeRequest returns a hook for frameworks with "before request"
// registration. It starts the span of the request.
func BeforeRequest(e *Engine) func(ctx context.Context, inbound Headers) {
	return e.StartSpan
}

// AfterRequest returns a hook for frameworks with "after request"
// registration. It ends the span of the request and hands the response back
// unchanged.
func AfterRequest[R any](e *Engine) func(ctx context.Context, response R) R {
	return func(ctx context.Context, response R) R {
		e.EndSpan(ctx)
		return response
	}
}
