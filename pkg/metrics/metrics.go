// Package metrics provides centralized Prometheus metrics registry for the
// iNaturalist client. All metrics are defined in their respective packages
// (client, cache, ratelimit, pagination) to maintain modularity and avoid
// circular dependencies.
//
// This package documents the available metrics and summarizes them at the
// end of a command line run.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
)

// Prefix is shared by every metric the client registers.
const Prefix = "inat_"

// Gatherer reads the metrics the client packages register through promauto
// on the default registry.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Pacing Metrics (pkg/ratelimit):
//   - inat_pacer_waits_total (Counter): Requests that had to wait for the pacer
//   - inat_pacer_wait_seconds (Histogram): Time spent waiting for the pacer
//
// Pagination Metrics (pkg/pagination):
//   - inat_pages_fetched_total (Counter): Search result pages fetched
//
// Cache Metrics (pkg/cache):
//   - inat_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - inat_cache_misses_total{layer} (Counter): Cache misses by layer
//   - inat_cache_size_bytes{layer} (Gauge): Bytes written to the cache by layer
//   - inat_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - inat_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status ("cached" for cache hits)
//   - inat_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - inat_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - inat_retries_total{error_class} (Counter): Retry attempts by error class
//   - inat_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - inat_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries

// Sample is one summarized series.
type Sample struct {
	Name   string
	Labels string
	// Value is the counter or gauge value, or the observation count of a
	// histogram or summary.
	Value float64
	// Sum is the sum of observations for histograms and summaries.
	Sum float64
}

// Collect gathers every inat_* series with a non-zero value, sorted by name
// and labels.
func Collect(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var samples []Sample
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Prefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: formatLabels(m.GetLabel())}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				s.Value = float64(m.GetHistogram().GetSampleCount())
				s.Sum = m.GetHistogram().GetSampleSum()
			case dto.MetricType_SUMMARY:
				s.Value = float64(m.GetSummary().GetSampleCount())
				s.Sum = m.GetSummary().GetSampleSum()
			default:
				continue
			}
			if s.Value != 0 {
				samples = append(samples, s)
			}
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

// LogSummary logs every non-zero inat_* series at info level.
func LogSummary(logger zerolog.Logger, g prometheus.Gatherer) error {
	samples, err := Collect(g)
	if err != nil {
		return err
	}

	for _, s := range samples {
		ev := logger.Info().Str("metric", s.Name).Float64("value", s.Value)
		if s.Labels != "" {
			ev = ev.Str("labels", s.Labels)
		}
		if s.Sum != 0 {
			ev = ev.Float64("sum", s.Sum)
		}
		ev.Msg("Metric")
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, lp := range pairs {
		parts = append(parts, lp.GetName()+"="+lp.GetValue())
	}
	return strings.Join(parts, ",")
}
