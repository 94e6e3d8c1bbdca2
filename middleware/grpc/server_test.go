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

package grpc_test

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	b3 "github.com/openzipkin/b3-go"
)

var _ = ginkgo.Describe("gRPC Server", func() {
	var (
		conn   *grpc.ClientConn
		client grpc_health_v1.HealthClient
	)

	ginkgo.BeforeEach(func() {
		var err error

		serverIDGenerator.reset()
		serverLogHook.Reset()
		healthService.Reset()

		conn, err = grpc.Dial(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		client = grpc_health_v1.NewHealthClient(conn)
	})

	ginkgo.AfterEach(func() {
		_ = conn.Close()
	})

	ginkgo.It("creates a root span", func() {
		_, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Expect(healthService.Last().Values).To(gomega.Equal(b3.SpanValues{
			TraceID: "0000000001000000",
			SpanID:  "0000000001000000",
		}))
	})

	ginkgo.It("continues the incoming trace", func() {
		ctx := metadata.AppendToOutgoingContext(
			context.Background(),
			"x-b3-traceid", "463ac35c9f6413ad",
			"x-b3-spanid", "72485a3953bb6124",
			"x-b3-parentspanid", "0020000000000001",
			"x-b3-sampled", "1",
		)

		_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Expect(healthService.Last().Values).To(gomega.Equal(b3.SpanValues{
			TraceID:      "463ac35c9f6413ad",
			SpanID:       "72485a3953bb6124",
			ParentSpanID: "0020000000000001",
			Sampled:      "1",
		}))
	})

	ginkgo.It("starts a span for streams", func() {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "x-b3-traceid", "463ac35c9f6413ad")

		stream, err := client.Watch(ctx, &grpc_health_v1.HealthCheckRequest{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		_, err = stream.Recv()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		values := healthService.Last().Values
		gomega.Expect(values.TraceID).To(gomega.Equal("463ac35c9f6413ad"))
		gomega.Expect(values.SpanID).To(gomega.Equal("463ac35c9f6413ad"))
	})

	ginkgo.It("ends the span when the call ends", func() {
		ctx := metadata.AppendToOutgoingContext(context.Background(), "x-b3-traceid", "00000000000fa11d")

		_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "fail"})
		gomega.Expect(err).To(gomega.HaveOccurred())

		gomega.Eventually(func() []string {
			var messages []string
			for _, entry := range serverLogHook.AllEntries() {
				if entry.Level == logrus.InfoLevel && entry.Data["traceId"] == "00000000000fa11d" {
					messages = append(messages, entry.Message)
				}
			}
			return messages
		}).Should(gomega.Equal([]string{"Server receive. Starting span", "Server send. Closing span"}))
	})
})
