package goSession

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// AuditEvent is a structured audit record emitted by the [Manager].
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink is an [AuditSink] that writes events to a [slog.Logger].
type LogSink = internalaudit.LogSink

// Audit event types.
const (
	AuditSessionCreated   = internalaudit.EventSessionCreated
	AuditSessionDeleted   = internalaudit.EventSessionDeleted
	AuditSessionCorrupted = internalaudit.EventSessionCorrupted
	AuditTransportFailure = internalaudit.EventTransportFailure
)

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogSink creates a [LogSink]; a nil logger means [slog.Default].
func NewLogSink(logger *slog.Logger) *LogSink {
	return internalaudit.NewLogSink(logger)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricSessionLoaded counts requests whose cookie resolved to stored data.
	MetricSessionLoaded = internalmetrics.MetricSessionLoaded
	// MetricSessionMissing counts requests that started with a new session.
	MetricSessionMissing = internalmetrics.MetricSessionMissing
	// MetricSessionCreated counts sessions persisted under a fresh key.
	MetricSessionCreated = internalmetrics.MetricSessionCreated
	// MetricSessionUpdated counts saves of existing sessions.
	MetricSessionUpdated = internalmetrics.MetricSessionUpdated
	// MetricSessionDeleted counts sessions deleted because their data was emptied.
	MetricSessionDeleted = internalmetrics.MetricSessionDeleted
	// MetricSessionCorrupted counts stored values that failed verification.
	MetricSessionCorrupted = internalmetrics.MetricSessionCorrupted
	// MetricTransportFailure counts transport failures absorbed as "no session".
	MetricTransportFailure = internalmetrics.MetricTransportFailure
	// MetricCommitSkipped counts commits that had nothing to persist.
	MetricCommitSkipped = internalmetrics.MetricCommitSkipped
	// MetricCommitFailed counts commits whose write failed.
	MetricCommitFailed = internalmetrics.MetricCommitFailed
	// MetricCookieCleared counts responses that expired the session cookie.
	MetricCookieCleared = internalmetrics.MetricCookieCleared
	// MetricLoadLatency is the session load latency histogram.
	MetricLoadLatency = internalmetrics.MetricLoadLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
