// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the OpenTelemetry instruments recorded by the A2A client.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ScopeName is the instrumentation scope of the client's tracer and meter.
const ScopeName = "github.com/agentoven/a2a-go/client"

// Attribute keys.
const (
	AttrMethod       = attribute.Key("rpc.method")
	AttrSystem       = attribute.Key("rpc.system")
	AttrStatusCode   = attribute.Key("http.status_code")
	AttrJSONRPCError = attribute.Key("rpc.jsonrpc.error_code")
	AttrEventType    = attribute.Key("a2a.event_type")
)

// Metrics records per-call client measurements.
//
// Instruments that fail to register are replaced by no-op instruments after the
// error is passed to [otel.Handle].
type Metrics struct {
	started       metric.Int64Counter
	sentBytes     metric.Int64Counter
	receivedBytes metric.Int64Counter
	latency       metric.Float64Histogram
	events        metric.Int64Counter
}

// New creates the client instruments on m. A nil m uses the global meter provider.
func New(m metric.Meter) *Metrics {
	if m == nil {
		m = otel.Meter(ScopeName)
	}

	var (
		mt  Metrics
		err error
	)

	mt.started, err = m.Int64Counter("a2a.client.started",
		metric.WithDescription("Count of started RPCs"),
	)
	if err != nil {
		otel.Handle(err)
		mt.started = noop.Int64Counter{}
	}

	mt.sentBytes, err = m.Int64Counter("a2a.client.sent_bytes",
		metric.WithDescription("Bytes sent"),
		metric.WithUnit("By"),
	)
	if err != nil {
		otel.Handle(err)
		mt.sentBytes = noop.Int64Counter{}
	}

	mt.receivedBytes, err = m.Int64Counter("a2a.client.received_bytes",
		metric.WithDescription("Bytes received"),
		metric.WithUnit("By"),
	)
	if err != nil {
		otel.Handle(err)
		mt.receivedBytes = noop.Int64Counter{}
	}

	mt.latency, err = m.Float64Histogram("a2a.client.latency",
		metric.WithDescription("Round trip latency of RPCs"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		otel.Handle(err)
		mt.latency = noop.Float64Histogram{}
	}

	mt.events, err = m.Int64Counter("a2a.client.stream_events",
		metric.WithDescription("Task events received on streams"),
	)
	if err != nil {
		otel.Handle(err)
		mt.events = noop.Int64Counter{}
	}

	return &mt
}

func methodAttr(method string) metric.MeasurementOption {
	return metric.WithAttributes(AttrSystem.String("jsonrpc"), AttrMethod.String(method))
}

// Started counts a call to method.
func (m *Metrics) Started(ctx context.Context, method string) {
	m.started.Add(ctx, 1, methodAttr(method))
}

// Sent records n request bytes for method.
func (m *Metrics) Sent(ctx context.Context, method string, n int) {
	m.sentBytes.Add(ctx, int64(n), methodAttr(method))
}

// Received records n response bytes for method.
func (m *Metrics) Received(ctx context.Context, method string, n int) {
	m.receivedBytes.Add(ctx, int64(n), methodAttr(method))
}

// Finished records the latency of a call that started at start.
// status is the HTTP status code, or 0 when no response arrived.
func (m *Metrics) Finished(ctx context.Context, method string, status int, start time.Time) {
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	m.latency.Record(ctx, elapsed, metric.WithAttributes(
		AttrSystem.String("jsonrpc"),
		AttrMethod.String(method),
		AttrStatusCode.Int(status),
	))
}

// Event counts a stream event of the given type.
func (m *Metrics) Event(ctx context.Context, method, eventType string) {
	m.events.Add(ctx, 1, metric.WithAttributes(AttrMethod.String(method), AttrEventType.String(eventType)))
}
