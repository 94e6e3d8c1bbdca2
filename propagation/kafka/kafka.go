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
Package kafka propagates B3 headers through Kafka record headers.
*/
package kafka

import (
	"sort"
	"strings"

	"github.com/IBM/sarama"

	b3 "github.com/openzipkin/b3-go"
)

// Extract collects the B3 headers of a consumed message. Header keys are
// matched case-insensitively.
func Extract(msg *sarama.ConsumerMessage) b3.Headers {
	return b3.Extract(func(name string) string {
		for _, h := range msg.Headers {
			if h != nil && strings.EqualFold(string(h.Key), name) {
				return string(h.Value)
			}
		}
		return ""
	})
}

// Inject adds the provided headers to a message about to be produced.
// Existing record headers with the same keys are replaced; empty values are
// skipped.
func Inject(msg *sarama.ProducerMessage, headers b3.Headers) {
	kept := make([]sarama.RecordHeader, 0, len(msg.Headers)+len(headers))
	for _, h := range msg.Headers {
		if !replaced(headers, string(h.Key)) {
			kept = append(kept, h)
		}
	}

	keys := make([]string, 0, len(headers))
	for k, v := range headers {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		kept = append(kept, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(headers[k]),
		})
	}
	msg.Headers = kept
}

func replaced(headers b3.Headers, key string) bool {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
