// Package tracer sets up OpenTelemetry tracing for scan sessions.
package tracer

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kenyoneda/MultiMetaWear/internal/config"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

const tracerName = "metawear"

// Setup installs the global tracer provider described by cfg. The returned
// function flushes pending spans; it is a no-op for the noop exporter.
func Setup(ctx context.Context, cfg config.TracerConfig) (func(context.Context) error, error) {
	exporter := cfg.Exporter
	if !cfg.Enabled {
		exporter = "noop"
	}

	var exp sdktrace.SpanExporter
	switch exporter {
	case "stdout":
		var err error
		if exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint()); err != nil {
			return nil, errors.Wrap(err, "stdout span exporter")
		}
	case "noop", "":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	default:
		return nil, errors.Errorf("tracer: unknown exporter %q", exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartSpan starts a span on the metawear tracer of the global provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// RecordError marks span as failed with err.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// ScanSpans is a scanner.Listener that records one span per scan. Each newly
// discovered device becomes a span event.
type ScanSpans struct {
	tracer trace.Tracer

	mu      sync.Mutex
	spans   map[string]trace.Span
	devices map[string]int
}

// NewScanSpans returns a listener using tp, or the global provider when tp is nil.
func NewScanSpans(tp trace.TracerProvider) *ScanSpans {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &ScanSpans{
		tracer:  tp.Tracer(tracerName),
		spans:   make(map[string]trace.Span),
		devices: make(map[string]int),
	}
}

func (s *ScanSpans) OnScanStateChanged(scan scanner.Scan, state scanner.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch state {
	case scanner.Scanning:
		_, span := s.tracer.Start(context.Background(), "scan",
			trace.WithTimestamp(scan.StartedAt),
			trace.WithAttributes(
				attribute.String("scan.id", scan.ID),
				attribute.String("scan.filter", scan.Filter.String()),
				attribute.Int("scan.filter.size", scan.Filter.Len()),
				attribute.String("scan.deadline", scan.Deadline.Format(time.RFC3339Nano)),
			),
		)
		s.spans[scan.ID] = span
	case scanner.Idle:
		span, ok := s.spans[scan.ID]
		if !ok {
			return
		}
		span.SetAttributes(
			attribute.String("scan.reason", scan.Reason.String()),
			attribute.Int("scan.devices", s.devices[scan.ID]),
		)
		if scan.Err != nil {
			RecordError(span, scan.Err)
		} else {
			SetOK(span)
		}
		span.End(trace.WithTimestamp(scan.EndedAt))
		delete(s.spans, scan.ID)
		delete(s.devices, scan.ID)
	}
}

func (s *ScanSpans) OnDeviceDiscovered(scan scanner.Scan, dev scanner.Device) {
	if dev.Sightings != 1 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	span, ok := s.spans[scan.ID]
	if !ok {
		return
	}
	s.devices[scan.ID]++
	span.AddEvent("device discovered",
		trace.WithTimestamp(dev.FirstSeen),
		trace.WithAttributes(
			attribute.String("device.address", dev.Address),
			attribute.String("device.name", dev.Name),
			attribute.Int("device.rssi", dev.RSSI),
		),
	)
}
