package handler

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/premiumbutcher/profile-api/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "profile_account_resolutions_total", "outcome", snap.Resolutions)
	writeMetric(w, "profile_principal_cache_hits_total %d\n", snap.PrincipalCacheHits)
	writeMetric(w, "profile_principal_cache_misses_total %d\n", snap.PrincipalCacheMisses)
	writeLabeled(w, "profile_rate_limited_total", "scope", snap.RateLimited)

	writeLabeled(w, "profile_updates_applied_total", "entity", snap.UpdatesApplied)
	for _, key := range slices.Sorted(maps.Keys(snap.UpdatesRejected)) {
		entity, reason, _ := strings.Cut(key, "/")
		writeMetric(w, "profile_updates_rejected_total{entity=%q,reason=%q} %d\n", entity, reason, snap.UpdatesRejected[key])
	}
	writeMetric(w, "profile_update_duration_seconds_count %d\n", snap.UpdateDurationCount)
	writeMetric(w, "profile_update_duration_seconds_sum %.6f\n", float64(snap.UpdateDurationTotalNs)/1e9)

	writeMetric(w, "profile_dependents_created_total %d\n", snap.DependentsCreated)
	writeMetric(w, "profile_dependents_deleted_total %d\n", snap.DependentsDeleted)
}

// writeLabeled writes one sample per label value, sorted for stable output.
func writeLabeled(w io.Writer, name, label string, values map[string]uint64) {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, key, values[key])
	}
}

func writeMetric(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
