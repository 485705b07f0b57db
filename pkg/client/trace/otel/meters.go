package otel

import otelMetric "go.opentelemetry.io/otel/metric"

const (
	clientMeterPrefix = "keboola.go.resource.client."
	httpMeterPrefix   = "keboola.go.resource.http."
)

type meters struct {
	// client meters track whole Client.Send call, including redirects and retries
	clientInFlight otelMetric.Int64UpDownCounter
	clientDuration otelMetric.Float64Histogram
	// parse meters track reading and mapping of the final response body
	parseInFlight otelMetric.Int64UpDownCounter
	parseDuration otelMetric.Float64Histogram
	// http meters track each attempt
	httpInFlight     otelMetric.Int64UpDownCounter
	httpDuration     otelMetric.Float64Histogram
	httpRequestSize  otelMetric.Int64Counter
	httpResponseSize otelMetric.Int64Counter
}

func newMeters(meter otelMetric.Meter) *meters {
	return &meters{
		clientInFlight:   upDownCounter(meter, clientMeterPrefix+"request.in_flight", "HTTP client: in flight requests."),
		clientDuration:   histogram(meter, clientMeterPrefix+"request.duration", "HTTP client: requests duration."),
		parseInFlight:    upDownCounter(meter, clientMeterPrefix+"request.parse.in_flight", "HTTP client: in flight response parsing."),
		parseDuration:    histogram(meter, clientMeterPrefix+"request.parse.duration", "HTTP client: response parsing duration."),
		httpInFlight:     upDownCounter(meter, httpMeterPrefix+"request.in_flight", "HTTP request: in flight attempts."),
		httpDuration:     histogram(meter, httpMeterPrefix+"request.duration", "HTTP request: attempt duration, without parsing."),
		httpRequestSize:  counter(meter, httpMeterPrefix+"request.content_length", "HTTP request: sent body bytes.", "By"),
		httpResponseSize: counter(meter, httpMeterPrefix+"response.content_length", "HTTP request: received body bytes.", "By"),
	}
}

func upDownCounter(meter otelMetric.Meter, name, desc string) otelMetric.Int64UpDownCounter {
	return mustInstrument(meter.Int64UpDownCounter(name, otelMetric.WithDescription(desc)))
}

func counter(meter otelMetric.Meter, name, desc, unit string) otelMetric.Int64Counter {
	return mustInstrument(meter.Int64Counter(name, otelMetric.WithDescription(desc), otelMetric.WithUnit(unit)))
}

func histogram(meter otelMetric.Meter, name, desc string) otelMetric.Float64Histogram {
	return mustInstrument(meter.Float64Histogram(name, otelMetric.WithDescription(desc), otelMetric.WithUnit("ms")))
}

func mustInstrument[T any](instrument T, err error) T {
	if err != nil {
		panic(err)
	}
	return instrument
}
