package observability

import (
	"net/http"
	"time"

	"resumescan/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	obsConfig := cfg.Observability

	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:     obsConfig.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obsConfig.ServiceInstance,
		Enabled:         obsConfig.Enabled,
		ConsoleOutput:   obsConfig.ConsoleOutput,
		PrettyPrint:     obsConfig.Console.PrettyPrint,
		SampleRate:      obsConfig.SampleRate,
		Interval:        obsConfig.Metrics.CollectionInterval,
		Prometheus: PrometheusConfig{
			Enabled:  obsConfig.Prometheus.Enabled,
			Endpoint: obsConfig.Prometheus.Endpoint,
			Port:     obsConfig.Prometheus.Port,
		},
		OTLP:          obsConfig.OTLP,
		CustomMetrics: obsConfig.CustomMetrics,
	}
}

// NewHTTPClient returns an HTTP client for outbound provider calls. Requests
// are traced through otelhttp when observability is enabled.
func NewHTTPClient(om *ObservabilityManager, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if om == nil || !om.config.Enabled {
		return client
	}

	client.Transport = otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
	return client
}
