package logging

import (
	"github.com/sirupsen/logrus"
)

// TraceHook is a logrus.Hook adding the trace information of the entry's
// context as fields, for use with structured formatters such as
// logrus.JSONFormatter. Fields already set on the entry are left alone.
type TraceHook struct {
	Source TraceInfoSource
}

// NewTraceHook returns a TraceHook reading trace information from src.
func NewTraceHook(src TraceInfoSource) *TraceHook {
	return &TraceHook{Source: src}
}

// Levels implements logrus.Hook.
func (h *TraceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *TraceHook) Fire(entry *logrus.Entry) error {
	if entry.Context == nil || h.Source == nil {
		return nil
	}

	info := h.Source.CurrentTraceInfo(entry.Context)
	if info.TraceID == "" {
		return nil
	}

	fields := logrus.Fields{
		"traceId":  info.TraceID,
		"spanId":   info.SpanID,
		"exported": info.Exported,
	}
	if info.AppName != "" {
		fields["app"] = info.AppName
	}
	for k, v := range fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
