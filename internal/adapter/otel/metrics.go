package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "buildrelay"

// Metrics holds all relay metric instruments.
type Metrics struct {
	EventsReceived     metric.Int64Counter
	EventsRejected     metric.Int64Counter
	EventsSkipped      metric.Int64Counter
	Dispatched         metric.Int64Counter
	DispatchFailures   metric.Int64Counter
	RecordsResolved    metric.Int64Counter
	AnnotationsWritten metric.Int64Counter
	AnnotationsWarned  metric.Int64Counter
	HandleDuration     metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.EventsReceived, "buildrelay.events.received", "Inbound webhook events received"},
		{&m.EventsRejected, "buildrelay.events.rejected", "Events rejected by signature verification"},
		{&m.EventsSkipped, "buildrelay.events.skipped", "Events skipped by profile or action filter"},
		{&m.Dispatched, "buildrelay.dispatch.succeeded", "Successful outbound dispatches"},
		{&m.DispatchFailures, "buildrelay.dispatch.failed", "Failed outbound dispatches"},
		{&m.RecordsResolved, "buildrelay.records.resolved", "Work-item records resolved"},
		{&m.AnnotationsWritten, "buildrelay.annotations.written", "Back-references appended to records"},
		{&m.AnnotationsWarned, "buildrelay.annotations.warned", "Annotation attempts that ended in a warning"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.HandleDuration, err = meter.Float64Histogram("buildrelay.handle.duration_seconds",
		metric.WithDescription("End-to-end relay handling time in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
