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
Package store implements the request-scoped key/value store used to hold
B3 trace state for the lifetime of one inbound request.

A request scope is opened by the framework adapter with NewContext and is
reachable only through the context.Context of that request. Outside a scope
FromContext returns ErrNoActiveRequest.
*/
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNoActiveRequest is returned when a context carries no request scope.
var ErrNoActiveRequest = errors.New("no active request context")

// Store holds arbitrary values for the lifetime of one request.
type Store interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
}

// Resolver returns the Store of the request the context belongs to, or
// ErrNoActiveRequest if there is none.
type Resolver func(ctx context.Context) (Store, error)

// Map is an in-memory Store safe for concurrent use.
type Map struct {
	mtx    sync.RWMutex
	values map[string]interface{}
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]interface{})}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (interface{}, bool) {
	m.mtx.RLock()
	v, ok := m.values[key]
	m.mtx.RUnlock()
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map) Set(key string, value interface{}) {
	m.mtx.Lock()
	m.values[key] = value
	m.mtx.Unlock()
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *Map) Delete(key string) {
	m.mtx.Lock()
	delete(m.values, key)
	m.mtx.Unlock()
}

// Len returns the number of stored keys.
func (m *Map) Len() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.values)
}

type ctxKey struct{}

var storeKey = ctxKey{}

// NewContext opens a new request scope backed by an empty Map.
func NewContext(ctx context.Context) context.Context {
	return WithStore(ctx, NewMap())
}

// WithStore attaches the provided Store as the request scope of ctx.
func WithStore(ctx context.Context, s Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// FromContext retrieves the request scope from ctx. It returns
// ErrNoActiveRequest if ctx is nil or carries no scope.
func FromContext(ctx context.Context) (Store, error) {
	if ctx == nil {
		return nil, ErrNoActiveRequest
	}
	if s, ok := ctx.Value(storeKey).(Store); ok && s != nil {
		return s, nil
	}
	return nil, ErrNoActiveRequest
}
