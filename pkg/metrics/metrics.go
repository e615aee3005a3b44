// Package metrics exposes the Prometheus registry used by the label
// pipeline. Metrics are defined next to the code that records them
// (client, pagination, labels, lock); this package collects them for export.
//
// A CLI run is too short-lived to be scraped, so the registry is written
// to a file in the Prometheus text format for the node_exporter textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry; every metric is registered
// on it via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads the same registry.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes all gathered metrics to path. Parent directories
// are created; the file is replaced atomically.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(Gatherer, path)
}

// WriteTextfileFrom writes metrics from g to path.
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return fmt.Errorf("metrics textfile path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - boxnow_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - boxnow_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - boxnow_errors_total{class} (Counter): errors by class (client, server, network)
//
// Listing Metrics (pkg/pagination):
//   - boxnow_listing_pages_total (Counter): listing pages fetched
//   - boxnow_listing_truncated_total (Counter): listings ended by a missing cursor
//
// Label Metrics (pkg/labels):
//   - boxnow_label_documents_total{outcome} (Counter): ok, unsupported_format, download, io, precondition
//   - boxnow_label_document_bytes (Histogram): written document size
//
// Lock Metrics (pkg/lock):
//   - boxnow_lock_acquire_total{backend, result} (Counter): acquired, busy, error, lost
//
// Example Prometheus Queries:
//
//   # Format rejections per day
//   increase(boxnow_label_documents_total{outcome="unsupported_format"}[1d])
//
//   # P95 label request latency
//   histogram_quantile(0.95, rate(boxnow_request_duration_seconds_bucket{endpoint="/labels:search"}[1h]))
