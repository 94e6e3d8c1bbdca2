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
Package amqp propagates B3 headers through RabbitMQ message headers.
*/
package amqp

import (
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	b3 "github.com/openzipkin/b3-go"
)

// Extract collects the B3 headers from the header table of a delivery.
// String and byte slice values are accepted; keys are matched
// case-insensitively.
func Extract(table amqp.Table) b3.Headers {
	return b3.Extract(func(name string) string {
		for k, v := range table {
			if !strings.EqualFold(k, name) {
				continue
			}
			switch v := v.(type) {
			case string:
				return v
			case []byte:
				return string(v)
			}
		}
		return ""
	})
}

// Inject sets the provided headers on a message about to be published,
// replacing existing entries with the same keys. Empty values are skipped.
func Inject(msg *amqp.Publishing, headers b3.Headers) {
	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}
	for k, v := range headers {
		if v == "" {
			continue
		}
		for existing := range msg.Headers {
			if strings.EqualFold(existing, k) {
				delete(msg.Headers, existing)
			}
		}
		msg.Headers[k] = v
	}
}
