package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionLoaded, Name: "gosession_session_loaded_total", Help: "Requests whose cookie resolved to stored session data."},
	{ID: goSession.MetricSessionMissing, Name: "gosession_session_missing_total", Help: "Requests that started with a new empty session."},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions persisted under a fresh key."},
	{ID: goSession.MetricSessionUpdated, Name: "gosession_session_updated_total", Help: "Saves of existing sessions."},
	{ID: goSession.MetricSessionDeleted, Name: "gosession_session_deleted_total", Help: "Sessions deleted because their data was emptied or expired."},
	{ID: goSession.MetricSessionCorrupted, Name: "gosession_session_corrupted_total", Help: "Stored values that failed signature or format verification."},
	{ID: goSession.MetricTransportFailure, Name: "gosession_transport_failure_total", Help: "Store transport failures absorbed as no session."},
	{ID: goSession.MetricCommitSkipped, Name: "gosession_commit_skipped_total", Help: "Commits with nothing to persist."},
	{ID: goSession.MetricCommitFailed, Name: "gosession_commit_failed_total", Help: "Commits whose store write failed."},
	{ID: goSession.MetricCookieCleared, Name: "gosession_cookie_cleared_total", Help: "Responses that expired the session cookie."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLoadLatency, Name: "gosession_load_latency_seconds", Help: "Session load latency histogram."},
}

// HistogramBounds are the le label values of the load latency buckets, +Inf last.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramUpperBounds are the finite bucket upper bounds in seconds.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
