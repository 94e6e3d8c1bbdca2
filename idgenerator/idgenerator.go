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
Package idgenerator contains several Span and Trace ID generators which can be
used by the B3 propagation engine. Identifiers are 64 bit values rendered as
16 lowercase hex characters.
*/
package idgenerator

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// ErrEntropy is wrapped in the panic raised when the random source fails.
var ErrEntropy = errors.New("unable to read from entropy source")

// IDGenerator interface can be used to provide the B3 engine with custom
// implementations to generate trace and span identifiers.
type IDGenerator interface {
	ID() string // Generate a new 16 character hex identifier
}

// NewRandom64 returns an ID Generator which draws 64 bit identifiers from
// crypto/rand.
func NewRandom64() IDGenerator {
	return &randomID64{source: rand.Reader}
}

// NewSequential returns an ID Generator which hands out consecutive
// identifiers starting at start. Useful for deterministic tests.
func NewSequential(start uint64) IDGenerator {
	return &sequential{next: start}
}

type randomID64 struct {
	source io.Reader
}

// ID panics if the random source cannot deliver 8 bytes.
func (r *randomID64) ID() string {
	var b [8]byte
	if _, err := io.ReadFull(r.source, b[:]); err != nil {
		panic(fmt.Errorf("%w: %v", ErrEntropy, err))
	}
	return hex.EncodeToString(b[:])
}

type sequential struct {
	next uint64
}

func (s *sequential) ID() string {
	return fmt.Sprintf("%016x", atomic.AddUint64(&s.next, 1)-1)
}
