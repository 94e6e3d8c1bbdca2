package logging

import (
	"context"

	"go.uber.org/zap"
)

// ZapFields returns the trace information of ctx as zap fields, or nil
// without an active trace.
//
//	logger.Info("order placed", logging.ZapFields(ctx, engine)...)
func ZapFields(ctx context.Context, src TraceInfoSource) []zap.Field {
	info := src.CurrentTraceInfo(ctx)
	if info.TraceID == "" {
		return nil
	}

	fields := []zap.Field{
		zap.String("traceId", info.TraceID),
		zap.String("spanId", info.SpanID),
		zap.Bool("exported", info.Exported),
	}
	if info.AppName != "" {
		fields = append(fields, zap.String("app", info.AppName))
	}
	return fields
}
