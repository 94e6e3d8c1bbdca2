// Copyright 2020 The OpenZipkin Authors
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

package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/propagation"
)

// withOutgoingHeaders returns a context whose outgoing metadata carries headers. Metadata
// already attached to ctx is copied, never modified, and B3 keys found in it are dropped.
func withOutgoingHeaders(ctx context.Context, headers b3.Headers) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
		for _, name := range b3.HeaderNames {
			md.Delete(name)
		}
	} else {
		md = metadata.New(nil)
	}
	propagation.InjectGRPC(md, headers)
	return metadata.NewOutgoingContext(ctx, md)
}
