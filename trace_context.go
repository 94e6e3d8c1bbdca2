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

import "sync"

// SpanValues holds the five B3 fields of a span. An empty string is an
// absent value.
type SpanValues struct {
	TraceID      string `json:"traceId,omitempty"`
	ParentSpanID string `json:"parentSpanId,omitempty"`
	SpanID       string `json:"spanId,omitempty"`
	Sampled      string `json:"sampled,omitempty"`
	Flags        string `json:"flags,omitempty"`
}

// Empty returns true if no field is set.
func (v SpanValues) Empty() bool {
	return (SpanValues{}) == v
}

// Headers renders the set fields under their B3 header names.
func (v SpanValues) Headers() Headers {
	h := make(Headers, len(HeaderNames))
	for name, value := range map[string]string{
		TraceID:      v.TraceID,
		ParentSpanID: v.ParentSpanID,
		SpanID:       v.SpanID,
		Sampled:      v.Sampled,
		Flags:        v.Flags,
	} {
		if value != "" {
			h[name] = value
		}
	}
	return h
}

// TraceContext holds the B3 state of one request: the span established from
// the inbound headers and the subspans opened for downstream calls.
//
// Subspans opened with Engine.StartSubspan form a stack shared by the
// request; the top of the stack overrides the span. Subspans opened with
// Engine.StartSubspanFromContext are only visible through the context they
// return, so concurrent downstream calls from one span never see each other.
type TraceContext struct {
	mtx  sync.Mutex
	span SpanValues
	open []*subspan
}

// subspan is one open or closed downstream call. parent is the subspan that
// was effective when it was opened, nil for the span itself.
type subspan struct {
	owner  *TraceContext
	parent *subspan
	values SpanValues
	scoped bool
	closed bool
}

func newTraceContext(span SpanValues) *TraceContext {
	return &TraceContext{span: span}
}

// EffectiveValues returns the values of the innermost open subspan of the
// shared stack, or of the span when none is open. A nil TraceContext yields
// empty values.
func (tc *TraceContext) EffectiveValues() SpanValues {
	if tc == nil {
		return SpanValues{}
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	return tc.valuesOf(tc.visible(nil))
}

// Span returns the values of the request span, ignoring open subspans.
func (tc *TraceContext) Span() SpanValues {
	if tc == nil {
		return SpanValues{}
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	return tc.span
}

// OpenSubspans returns the number of subspans not yet closed.
func (tc *TraceContext) OpenSubspans() int {
	if tc == nil {
		return 0
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	return len(tc.open)
}

// valuesFor returns the effective values as seen from the subspan carried by
// a context, nil for a context that carries none.
func (tc *TraceContext) valuesFor(from *subspan) SpanValues {
	if tc == nil {
		return SpanValues{}
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	return tc.valuesOf(tc.visible(from))
}

func (tc *TraceContext) valuesOf(s *subspan) SpanValues {
	if s == nil {
		return tc.span
	}
	return s.values
}

// visible returns the innermost open subspan seen from the given subspan:
// a shared subspan opened on top of it, otherwise its closest open ancestor.
// Scoped subspans other than from itself are never visible. Must be called
// with mtx held.
func (tc *TraceContext) visible(from *subspan) *subspan {
	if from != nil && from.owner != tc {
		from = nil
	}
	for from != nil && from.closed {
		from = from.parent
	}
	for i := len(tc.open) - 1; i >= 0; i-- {
		s := tc.open[i]
		if s == from {
			return s
		}
		if !s.scoped && descends(s, from) {
			return s
		}
	}
	return nil
}

// descends reports whether ancestor is on the parent chain of s without a
// foreign scoped subspan in between. nil stands for the span.
func descends(s, ancestor *subspan) bool {
	for p := s.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
		if p.scoped {
			return false
		}
	}
	return ancestor == nil
}

// openSubspan registers a new subspan whose parent is the one visible from
// the given subspan. derive builds its values from the parent's.
func (tc *TraceContext) openSubspan(from *subspan, derive func(parent SpanValues) SpanValues, scoped bool) *subspan {
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	parent := tc.visible(from)
	s := &subspan{
		owner:  tc,
		parent: parent,
		values: derive(tc.valuesOf(parent)),
		scoped: scoped,
	}
	tc.open = append(tc.open, s)
	return s
}

// closeSubspan closes the subspan visible from the given one and returns
// its values. It returns false if only the span is visible, or if from is
// already closed or belongs to another request.
func (tc *TraceContext) closeSubspan(from *subspan) (SpanValues, bool) {
	if tc == nil {
		return SpanValues{}, false
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	if from != nil && (from.owner != tc || from.closed) {
		return SpanValues{}, false
	}
	s := tc.visible(from)
	if s == nil {
		return SpanValues{}, false
	}
	tc.remove(s)
	return s.values, true
}

// closeLast closes the most recently opened subspan, whatever its kind.
func (tc *TraceContext) closeLast() (SpanValues, bool) {
	if tc == nil {
		return SpanValues{}, false
	}
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	n := len(tc.open)
	if n == 0 {
		return SpanValues{}, false
	}
	s := tc.open[n-1]
	tc.remove(s)
	return s.values, true
}

func (tc *TraceContext) remove(s *subspan) {
	s.closed = true
	for i, o := range tc.open {
		if o == s {
			tc.open = append(tc.open[:i], tc.open[i+1:]...)
			return
		}
	}
}
