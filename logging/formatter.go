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
Package logging annotates log records with the B3 trace information of the
request they were written for, in the format of Spring Cloud Sleuth:

	2022-03-01 10:15:42.123  INFO [orders,463ac35c9f6413ad,a2fb4a1d1a96d312,false] 4242 --- [           main] orders                                   : Client start. Starting sub-span
*/
package logging

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	b3 "github.com/openzipkin/b3-go"
)

// Entry fields naming the thread and logger columns of a Sleuth log line.
const (
	FieldThread = "thread"
	FieldLogger = "logger"
)

const (
	defaultTimestampFormat = "2006-01-02 15:04:05.000"
	defaultThread          = "main"
	defaultLogger          = "root"
	maxThreadLength        = 15
	maxLoggerLength        = 40
)

// TraceInfoSource provides the trace information of a request. *b3.Engine
// implements it.
type TraceInfoSource interface {
	CurrentTraceInfo(ctx context.Context) b3.TraceInfo
}

// SleuthFormatter is a logrus.Formatter rendering Spring Cloud Sleuth
// compatible lines. The trace information is looked up through the context
// of the entry, so log with logger.WithContext(ctx).
type SleuthFormatter struct {
	// Source provides the trace information; when nil no trace block is
	// written.
	Source TraceInfoSource
	// TimestampFormat defaults to "2006-01-02 15:04:05.000".
	TimestampFormat string

	pid int
}

// NewSleuthFormatter returns a SleuthFormatter reading trace information
// from src.
func NewSleuthFormatter(src TraceInfoSource) *SleuthFormatter {
	return &SleuthFormatter{Source: src, pid: os.Getpid()}
}

// Format implements logrus.Formatter.
func (f *SleuthFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = defaultTimestampFormat
	}
	pid := f.pid
	if pid == 0 {
		pid = os.Getpid()
	}

	b.WriteString(entry.Time.Format(timestampFormat))
	fmt.Fprintf(b, " %5s ", levelName(entry.Level))
	b.WriteString(f.tracingInformation(entry))
	fmt.Fprintf(b, "%d --- [%15s] %-40s : %s",
		pid,
		column(entry.Data, FieldThread, defaultThread, maxThreadLength),
		column(entry.Data, FieldLogger, defaultLogger, maxLoggerLength),
		entry.Message,
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != FieldThread && k != FieldLogger {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// tracingInformation returns "[app,traceId,spanId,exported] " or, without
// an active trace, an empty string.
func (f *SleuthFormatter) tracingInformation(entry *logrus.Entry) string {
	if f.Source == nil {
		return ""
	}
	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	info := f.Source.CurrentTraceInfo(ctx)
	if info.TraceID == "" {
		return ""
	}

	app := info.AppName
	if app == "" {
		app = " - "
	}
	return fmt.Sprintf("[%s,%s,%s,%t] ", app, info.TraceID, info.SpanID, info.Exported)
}

func levelName(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(l.String())
}

func column(data logrus.Fields, key, fallback string, max int) string {
	v, ok := data[key]
	if !ok {
		return fallback
	}
	s := fmt.Sprint(v)
	if len(s) > max {
		s = s[:max]
	}
	return s
}
