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

package propagation

import (
	"google.golang.org/grpc/metadata"

	b3 "github.com/openzipkin/b3-go"
)

// ExtractGRPC collects the B3 headers found in gRPC metadata.
func ExtractGRPC(md metadata.MD) b3.Headers {
	return b3.Extract(func(name string) string {
		// metadata keys are lowercase, Get normalizes the lookup
		if v := md.Get(name); len(v) > 0 {
			return v[0]
		}
		return ""
	})
}

// InjectGRPC sets the provided headers in gRPC metadata, replacing existing
// values. Empty values are skipped.
func InjectGRPC(md metadata.MD, headers b3.Headers) {
	for k, v := range headers {
		if v == "" {
			continue
		}
		md.Set(k, v)
	}
}
