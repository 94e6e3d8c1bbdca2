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

import "strings"

// Canonical B3 header names.
// See: https://github.com/openzipkin/b3-propagation
const (
	TraceID      = "X-B3-TraceId"
	ParentSpanID = "X-B3-ParentSpanId"
	SpanID       = "X-B3-SpanId"
	Sampled      = "X-B3-Sampled"
	Flags        = "X-B3-Flags"
)

// HeaderNames holds the B3 header names in propagation order.
var HeaderNames = []string{TraceID, ParentSpanID, SpanID, Sampled, Flags}

// Headers maps header names to values. A missing key signals that the value
// was never decided upstream.
type Headers map[string]string

// Extract collects the B3 headers through get, which is responsible for
// matching header names case-insensitively. Empty values are left out.
func Extract(get func(name string) string) Headers {
	h := make(Headers, len(HeaderNames))
	for _, name := range HeaderNames {
		if v := get(name); v != "" {
			h[name] = v
		}
	}
	return h
}

// FromMap collects the B3 headers from a plain map whose keys may use any
// casing.
func FromMap(m map[string]string) Headers {
	return Extract(func(name string) string {
		if v, ok := m[name]; ok {
			return v
		}
		for k, v := range m {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	})
}

// IsB3 reports whether name is one of the B3 header names, ignoring case.
func IsB3(name string) bool {
	for _, n := range HeaderNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
