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
Package gin contains a B3 propagation middleware for the Gin web framework.
*/
package gin

import (
	gingonic "github.com/gin-gonic/gin"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/propagation"
	"github.com/openzipkin/b3-go/store"
)

// Middleware returns a gin.HandlerFunc which starts a B3 span for every
// request and ends it once the remaining handlers of the chain return.
// Handlers find the span through c.Request.Context().
func Middleware(e *b3.Engine) gingonic.HandlerFunc {
	return func(c *gingonic.Context) {
		ctx := store.NewContext(c.Request.Context())

		e.StartSpan(ctx, propagation.ExtractHTTP(c.Request.Header))
		defer e.EndSpan(ctx)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
