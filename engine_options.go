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
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/openzipkin/b3-go/idgenerator"
	"github.com/openzipkin/b3-go/store"
)

// Engine Option Errors
var (
	ErrInvalidIDGenerator   = errors.New("requires valid id generator")
	ErrInvalidLogger        = errors.New("requires valid logger")
	ErrInvalidStoreResolver = errors.New("requires valid store resolver")
)

// EngineOption allows for functional options to adjust behavior of the
// Engine to be created with NewEngine().
type EngineOption func(o *EngineOptions) error

// EngineOptions for an Engine instance.
type EngineOptions struct {
	appName  string
	debug    bool
	generate idgenerator.IDGenerator
	logger   logrus.FieldLogger
	resolve  store.Resolver
}

// WithAppName sets the application name reported to log enrichment.
func WithAppName(name string) EngineOption {
	return func(o *EngineOptions) error {
		o.appName = name
		return nil
	}
}

// WithDebug forces X-B3-Flags to "1" on every span started by the engine,
// regardless of the inbound value.
func WithDebug(debug bool) EngineOption {
	return func(o *EngineOptions) error {
		o.debug = debug
		return nil
	}
}

// WithIDGenerator allows one to set a custom ID Generator
func WithIDGenerator(generator idgenerator.IDGenerator) EngineOption {
	return func(o *EngineOptions) error {
		if generator == nil {
			return ErrInvalidIDGenerator
		}
		o.generate = generator
		return nil
	}
}

// WithLogger sets the logger receiving span lifecycle messages. By default
// the engine logs nothing.
func WithLogger(logger logrus.FieldLogger) EngineOption {
	return func(o *EngineOptions) error {
		if logger == nil {
			return ErrInvalidLogger
		}
		o.logger = logger
		return nil
	}
}

// WithStoreResolver replaces the lookup of the request scope. The default
// uses the scope opened by store.NewContext.
func WithStoreResolver(resolve store.Resolver) EngineOption {
	return func(o *EngineOptions) error {
		if resolve == nil {
			return ErrInvalidStoreResolver
		}
		o.resolve = resolve
		return nil
	}
}
