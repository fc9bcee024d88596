package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the ingestion metrics. It is not the global prometheus registry, so each store
// gets its own set.
type Registry struct {
	reg          *prometheus.Registry
	FilesLoaded  prometheus.Counter
	FilesFailed  prometheus.Counter
	Rows         prometheus.Counter
	Entities     *prometheus.CounterVec
	LineItems    prometheus.Counter
	FileDuration prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	filesLoaded := prometheus.NewCounter(prometheus.CounterOpts{Name: "storedb_files_loaded_total", Help: "Intake files fully ingested and archived."})
	filesFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "storedb_files_failed_total", Help: "Intake files that stopped on a row error."})
	rows := prometheus.NewCounter(prometheus.CounterOpts{Name: "storedb_rows_ingested_total", Help: "Sales rows committed."})
	entities := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storedb_entities_reconciled_total",
		Help: "Customers and invoices reconciled, by whether they were created or already existed.",
	}, []string{"entity", "outcome"})
	lineItems := prometheus.NewCounter(prometheus.CounterOpts{Name: "storedb_line_items_total", Help: "Invoice detail rows inserted."})
	fileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storedb_file_duration_seconds",
		Help:    "Time spent ingesting one intake file.",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(filesLoaded, filesFailed, rows, entities, lineItems, fileDuration)
	return &Registry{
		reg:          r,
		FilesLoaded:  filesLoaded,
		FilesFailed:  filesFailed,
		Rows:         rows,
		Entities:     entities,
		LineItems:    lineItems,
		FileDuration: fileDuration,
	}
}

// ObserveReconcile counts one reconciliation of entity ("customer" or "invoice").
func (r *Registry) ObserveReconcile(entity string, created bool) {
	outcome := "reused"
	if created {
		outcome = "created"
	}
	r.Entities.WithLabelValues(entity, outcome).Inc()
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes every metric in the text exposition format, for the node exporter
// textfile collector. An empty path is a no-op.
func (r *Registry) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
