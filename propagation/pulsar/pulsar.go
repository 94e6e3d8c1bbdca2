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
Package pulsar propagates B3 headers through Pulsar message properties.
*/
package pulsar

import (
	"strings"

	"github.com/apache/pulsar-client-go/pulsar"

	b3 "github.com/openzipkin/b3-go"
)

// Extract collects the B3 headers from the properties of a received message.
func Extract(msg pulsar.Message) b3.Headers {
	if msg == nil {
		return b3.Headers{}
	}
	return b3.FromMap(msg.Properties())
}

// Inject sets the provided headers as properties of a message about to be
// sent. Empty values are skipped.
func Inject(msg *pulsar.ProducerMessage, headers b3.Headers) {
	if msg.Properties == nil {
		msg.Properties = make(map[string]string, len(headers))
	}
	for k, v := range headers {
		if v == "" {
			continue
		}
		for existing := range msg.Properties {
			if strings.EqualFold(existing, k) {
				delete(msg.Properties, existing)
			}
		}
		msg.Properties[k] = v
	}
}
