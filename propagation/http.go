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
Package propagation reads B3 headers from, and writes them to, HTTP headers
and gRPC metadata. Broker specific carriers live in the subpackages.
*/
package propagation

import (
	"net/http"

	b3 "github.com/openzipkin/b3-go"
)

// ExtractHTTP collects the B3 headers of an HTTP request.
func ExtractHTTP(h http.Header) b3.Headers {
	return b3.Extract(h.Get)
}

// InjectHTTP sets the provided headers on h. Empty values are skipped.
func InjectHTTP(h http.Header, headers b3.Headers) {
	for k, v := range headers {
		if v == "" {
			continue
		}
		h.Set(k, v)
	}
}
