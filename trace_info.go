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

import "context"

// TraceInfo is the trace information used to annotate log records.
type TraceInfo struct {
	AppName string
	TraceID string
	SpanID  string
	// Exported is always false: spans are never sent to a tracing backend.
	Exported bool
}

// CurrentTraceInfo returns the trace information of the effective span of
// the request. TraceID is empty when no span is active.
func (e *Engine) CurrentTraceInfo(ctx context.Context) TraceInfo {
	v := e.Values(ctx)
	return TraceInfo{
		AppName: e.options.appName,
		TraceID: v.TraceID,
		SpanID:  v.SpanID,
	}
}
