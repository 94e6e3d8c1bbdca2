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
	"io"

	"github.com/sirupsen/logrus"

	"github.com/openzipkin/b3-go/idgenerator"
	"github.com/openzipkin/b3-go/store"
)

// traceContextKey is the request scope key holding the *TraceContext.
const traceContextKey = "b3.trace-context"

// subspanKey is the context key holding the *subspan opened by
// StartSubspanFromContext.
type subspanKey struct{}

func subspanFrom(ctx context.Context) *subspan {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(subspanKey{}).(*subspan)
	return s
}

// Engine establishes B3 spans from inbound headers, keeps them in the
// request scope and derives the headers for downstream calls.
type Engine struct {
	options EngineOptions
}

// NewEngine returns a new B3 propagation Engine.
func NewEngine(options ...EngineOption) (*Engine, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	// set default engine options
	opts := &EngineOptions{
		generate: idgenerator.NewRandom64(),
		logger:   discard,
		resolve:  store.FromContext,
	}

	// process functional options
	for _, option := range options {
		if err := option(opts); err != nil {
			return nil, err
		}
	}

	return &Engine{options: *opts}, nil
}

// Debug reports whether the engine forces the debug flag.
func (e *Engine) Debug() bool {
	return e.options.debug
}

// AppName returns the configured application name.
func (e *Engine) AppName() string {
	return e.options.appName
}

// StartSpan collects the inbound B3 headers and stores the resulting span
// as the TraceContext of the request, replacing any previous one. Missing
// headers are never an error: without a trace id a root span is created.
func (e *Engine) StartSpan(ctx context.Context, inbound Headers) {
	s, err := e.options.resolve(ctx)
	if err != nil {
		e.log(ctx).WithError(err).Warn("Unable to start span")
		return
	}

	span := SpanValues{
		TraceID:      inbound[TraceID],
		ParentSpanID: inbound[ParentSpanID],
		SpanID:       inbound[SpanID],
		Sampled:      inbound[Sampled],
		Flags:        inbound[Flags],
	}
	root := span.TraceID == ""

	if root {
		span.TraceID = e.options.generate.ID()
	}

	// without an inbound span id the trace id doubles as span id
	if span.SpanID == "" {
		span.SpanID = span.TraceID
	}

	if e.options.debug {
		span.Flags = "1"
	}

	s.Set(traceContextKey, newTraceContext(span))

	if root {
		e.logSpan(ctx, span, "Root span")
	} else {
		e.logSpan(ctx, span, "Server receive. Starting span")
	}
	e.log(ctx).Debugf("Resolved B3 values: %v", span.Headers())
}

// EndSpan closes any subspan left open, logs the end of the span and
// discards the TraceContext of the request.
func (e *Engine) EndSpan(ctx context.Context) {
	tc := e.traceContext(ctx)
	for {
		v, ok := tc.closeLast()
		if !ok {
			break
		}
		e.logSpan(ctx, v, "Client receive. Closing sub-span")
	}

	e.logSpan(ctx, tc.Span(), "Server send. Closing span")

	if s, err := e.options.resolve(ctx); err == nil {
		s.Delete(traceContextKey)
	}
}

// Values returns the effective B3 values of the request: those of the
// innermost subspan visible from ctx, otherwise those of the span. Outside a
// request scope, or before StartSpan, every value is empty.
func (e *Engine) Values(ctx context.Context) SpanValues {
	return e.traceContext(ctx).valuesFor(subspanFrom(ctx))
}

// TraceContext returns the TraceContext of the request, or nil if no span
// has been started.
func (e *Engine) TraceContext(ctx context.Context) *TraceContext {
	return e.traceContext(ctx)
}

// StartSubspan opens a subspan for a downstream call and returns the headers
// to send with it. The provided headers are copied, never modified, and any
// B3 header among them is replaced regardless of its casing. Until
// EndSubspan is called, Values reports the subspan.
//
// Sampled and Flags are only propagated when set, so downstream services can
// tell that no decision was made upstream.
//
// Subspans opened this way are shared by everything using the request
// context. Downstream calls made concurrently from one span should use
// StartSubspanFromContext instead.
func (e *Engine) StartSubspan(ctx context.Context, outbound Headers) Headers {
	headers, _ := e.startSubspan(ctx, outbound, false)
	return headers
}

// StartSubspanFromContext opens a subspan like StartSubspan but only makes
// it visible through the returned context. Sibling calls started from the
// same context each get the current span as parent and never observe one
// another. Pass the returned context to EndSubspan to close exactly this
// subspan.
func (e *Engine) StartSubspanFromContext(ctx context.Context, outbound Headers) (Headers, context.Context) {
	headers, sub := e.startSubspan(ctx, outbound, true)
	if sub == nil {
		return headers, ctx
	}
	return headers, context.WithValue(ctx, subspanKey{}, sub)
}

func (e *Engine) startSubspan(ctx context.Context, outbound Headers, scoped bool) (Headers, *subspan) {
	var tc *TraceContext
	if s, err := e.options.resolve(ctx); err == nil {
		if tc = lookup(s); tc == nil {
			tc = newTraceContext(SpanValues{})
			s.Set(traceContextKey, tc)
		}
	} else {
		e.log(ctx).WithError(err).Debug("Sub-span not recorded")
	}

	derive := func(current SpanValues) SpanValues {
		return SpanValues{
			TraceID:      current.TraceID,
			SpanID:       e.options.generate.ID(),
			ParentSpanID: current.SpanID,
			Sampled:      current.Sampled,
			Flags:        current.Flags,
		}
	}

	var (
		sub    *subspan
		values SpanValues
	)
	if tc != nil {
		sub = tc.openSubspan(subspanFrom(ctx), derive, scoped)
		values = sub.values
	} else {
		values = derive(SpanValues{})
	}

	headers := make(Headers, len(outbound)+len(HeaderNames))
	for k, v := range outbound {
		if !IsB3(k) {
			headers[k] = v
		}
	}
	headers[TraceID] = values.TraceID
	headers[SpanID] = values.SpanID
	headers[ParentSpanID] = values.ParentSpanID
	if values.Sampled != "" {
		headers[Sampled] = values.Sampled
	}
	if values.Flags != "" {
		headers[Flags] = values.Flags
	}

	e.logSpan(ctx, values, "Client start. Starting sub-span")
	e.log(ctx).Debugf("B3 values for sub-span: %v", values.Headers())
	e.log(ctx).Debugf("All headers for downstream request: %v", headers)

	return headers, sub
}

// EndSubspan closes the innermost subspan visible from ctx. It is a no-op if
// none is open, or if the subspan carried by ctx was already closed, so it
// can be called unconditionally in cleanup paths.
func (e *Engine) EndSubspan(ctx context.Context) {
	if v, ok := e.traceContext(ctx).closeSubspan(subspanFrom(ctx)); ok {
		e.logSpan(ctx, v, "Client receive. Closing sub-span")
	}
}

func (e *Engine) traceContext(ctx context.Context) *TraceContext {
	s, err := e.options.resolve(ctx)
	if err != nil {
		return nil
	}
	return lookup(s)
}

func lookup(s store.Store) *TraceContext {
	v, ok := s.Get(traceContextKey)
	if !ok {
		return nil
	}
	tc, _ := v.(*TraceContext)
	return tc
}

type contextLogger interface {
	WithContext(ctx context.Context) *logrus.Entry
}

func (e *Engine) log(ctx context.Context) logrus.FieldLogger {
	if l, ok := e.options.logger.(contextLogger); ok && ctx != nil {
		return l.WithContext(ctx)
	}
	return e.options.logger
}

func (e *Engine) logSpan(ctx context.Context, v SpanValues, msg string) {
	e.log(ctx).WithFields(logrus.Fields{
		"traceId":      v.TraceID,
		"spanId":       v.SpanID,
		"parentSpanId": v.ParentSpanID,
	}).Info(msg)
}
