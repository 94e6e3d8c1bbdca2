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
Package b3 implements B3 trace context propagation for Zipkin compatible
tracing systems.

An Engine collects the X-B3-* headers of an inbound request into a
TraceContext held in the request scope (see package store), exposes the
effective values to request-local code and derives the headers for
downstream calls:

	engine.StartSpan(ctx, inbound)
	defer engine.EndSpan(ctx)

	headers := engine.StartSubspan(ctx, nil)
	defer engine.EndSubspan(ctx)

Spans are never reported to a tracing backend and the engine makes no
sampling decision: X-B3-Sampled is passed through as received.
*/
package b3
