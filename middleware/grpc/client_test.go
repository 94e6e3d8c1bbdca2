package grpc_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/idgenerator"
	. "github.com/openzipkin/b3-go/middleware/grpc"
	"github.com/openzipkin/b3-go/store"
)

var _ = Describe("gRPC Client", func() {
	var (
		engine *b3.Engine
		conn   *grpc.ClientConn
		client grpc_health_v1.HealthClient
		ctx    context.Context
		span   b3.SpanValues
	)

	BeforeEach(func() {
		var err error

		serverIDGenerator.reset()
		healthService.Reset()

		engine, err = b3.NewEngine(b3.WithIDGenerator(idgenerator.NewSequential(1)))
		Expect(engine, err).ToNot(BeNil())

		ctx = store.NewContext(context.Background())
		engine.StartSpan(ctx, b3.Headers{
			b3.TraceID: "463ac35c9f6413ad",
			b3.SpanID:  "72485a3953bb6124",
			b3.Sampled: "1",
		})
		span = engine.Values(ctx)
	})

	AfterEach(func() {
		_ = conn.Close()
	})

	dial := func(opts ...grpc.DialOption) {
		var err error

		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		conn, err = grpc.Dial(serverAddr, opts...)
		Expect(conn, err).ToNot(BeNil())
		client = grpc_health_v1.NewHealthClient(conn)
	}

	Context("with unary interceptor", func() {
		BeforeEach(func() {
			dial(grpc.WithUnaryInterceptor(UnaryClientInterceptor(engine)))
		})

		It("propagates trace context", func() {
			_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())

			md := healthService.Last().Metadata
			Expect(md.Get("x-b3-traceid")).To(Equal([]string{"463ac35c9f6413ad"}))
			Expect(md.Get("x-b3-parentspanid")).To(Equal([]string{"72485a3953bb6124"}))
			Expect(md.Get("x-b3-spanid")).To(Equal([]string{"0000000000000001"}))
			Expect(md.Get("x-b3-sampled")).To(Equal([]string{"1"}))
			Expect(md.Get("x-b3-flags")).To(BeEmpty())
		})

		It("lets the server continue the trace", func() {
			_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())

			Expect(healthService.Last().Values).To(Equal(b3.SpanValues{
				TraceID:      "463ac35c9f6413ad",
				ParentSpanID: "72485a3953bb6124",
				SpanID:       "0000000000000001",
				Sampled:      "1",
			}))
		})

		It("keeps existing outgoing metadata", func() {
			callCtx := metadata.AppendToOutgoingContext(ctx, "tenant", "acme")
			_, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())

			md := healthService.Last().Metadata
			Expect(md.Get("tenant")).To(Equal([]string{"acme"}))
			Expect(md.Get("x-b3-traceid")).To(Equal([]string{"463ac35c9f6413ad"}))
		})

		It("replaces stale B3 metadata", func() {
			callCtx := metadata.AppendToOutgoingContext(ctx, "x-b3-traceid", "stale", "x-b3-flags", "1")
			_, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())

			md := healthService.Last().Metadata
			Expect(md.Get("x-b3-traceid")).To(Equal([]string{"463ac35c9f6413ad"}))
			Expect(md.Get("x-b3-flags")).To(BeEmpty())
		})

		It("gives concurrent calls the span as parent", func() {
			const calls = 10

			var wg sync.WaitGroup
			for i := 0; i < calls; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
					Expect(err).ToNot(HaveOccurred())
				}()
			}
			wg.Wait()

			recorded := healthService.Calls()
			Expect(recorded).To(HaveLen(calls))
			for _, call := range recorded {
				Expect(call.Values.ParentSpanID).To(Equal("72485a3953bb6124"))
			}
			Expect(engine.TraceContext(ctx).OpenSubspans()).To(BeZero())
		})

		It("closes the sub-span after the call", func() {
			_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "fail"})
			Expect(err).To(HaveOccurred())

			Expect(engine.Values(ctx)).To(Equal(span))
			Expect(engine.TraceContext(ctx).OpenSubspans()).To(BeZero())
		})

		It("works without a request scope", func() {
			_, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())

			call := healthService.Last()
			Expect(call.Metadata.Get("x-b3-traceid")).To(BeEmpty())
			Expect(call.Metadata.Get("x-b3-spanid")).To(Equal([]string{"0000000000000001"}))
			// the server starts a new trace
			Expect(call.Values.TraceID).To(Equal("0000000001000000"))
			Expect(call.Values.SpanID).To(Equal("0000000000000001"))
		})
	})

	Context("with stream interceptor", func() {
		BeforeEach(func() {
			dial(grpc.WithStreamInterceptor(StreamClientInterceptor(engine)))
		})

		It("propagates trace context", func() {
			stream, err := client.Watch(ctx, &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())
			_, err = stream.Recv()
			Expect(err).ToNot(HaveOccurred())

			md := healthService.Last().Metadata
			Expect(md.Get("x-b3-traceid")).To(Equal([]string{"463ac35c9f6413ad"}))
			Expect(md.Get("x-b3-parentspanid")).To(Equal([]string{"72485a3953bb6124"}))
			Expect(md.Get("x-b3-spanid")).To(Equal([]string{"0000000000000001"}))

			Expect(engine.Values(ctx)).To(Equal(span))
		})
	})

	Context("with stats handler", func() {
		BeforeEach(func() {
			dial(grpc.WithStatsHandler(NewClientHandler(engine)))
		})

		It("propagates trace context", func() {
			_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
			Expect(err).ToNot(HaveOccurred())

			md := healthService.Last().Metadata
			Expect(md.Get("x-b3-traceid")).To(Equal([]string{"463ac35c9f6413ad"}))
			Expect(md.Get("x-b3-parentspanid")).To(Equal([]string{"72485a3953bb6124"}))
			Expect(md.Get("x-b3-spanid")).To(Equal([]string{"0000000000000001"}))

			Eventually(func() b3.SpanValues {
				return engine.Values(ctx)
			}).Should(Equal(span))
		})
	})
})
