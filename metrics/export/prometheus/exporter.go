package prometheus

import (
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter serves session metrics from a private registry that holds only
// the goSession Collector, so mounting it never exposes process or Go runtime metrics.
type PrometheusExporter struct {
	source   metricsSource
	registry *promclient.Registry
}

// NewPrometheusExporter creates an exporter that reads from the given [goSession.Manager].
func NewPrometheusExporter(manager *goSession.Manager) *PrometheusExporter {
	return NewPrometheusExporterFromSource(manager)
}

// NewPrometheusExporterFromSource creates an exporter from a custom metrics source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	reg := promclient.NewPedanticRegistry()
	reg.MustRegister(NewCollectorFromSource(source))
	return &PrometheusExporter{source: source, registry: reg}
}

// Handler serves the session metrics, negotiating the exposition format with the
// scraper.
func (p *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Render returns the current metrics in text exposition format, or "" when the
// manager collects nothing.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}
	families, err := p.registry.Gather()
	if err != nil || len(families) == 0 {
		return ""
	}

	var b strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return ""
		}
	}
	return b.String()
}
