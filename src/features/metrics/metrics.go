package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. Everything is process-local; scrape and aggregate
// with the usual Prometheus machinery.
var (
	FilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tomekeeper_files_scanned_total",
		Help: "Audio files discovered and read during library scans.",
	})
	ScanErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tomekeeper_scan_errors_total",
		Help: "Files that could not be read during library scans.",
	})
	GroupsFormed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tomekeeper_groups",
		Help: "Audiobook groups formed by the latest scan.",
	})
	ProviderQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tomekeeper_provider_queries_total",
		Help: "Metadata provider lookups, by provider and outcome.",
	}, []string{"provider", "outcome"})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tomekeeper_cache_hits_total",
		Help: "Reconciliations answered from the metadata cache.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tomekeeper_cache_misses_total",
		Help: "Reconciliations that had to query providers.",
	})
	TagWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tomekeeper_tag_writes_total",
		Help: "Tag write attempts, by outcome.",
	}, []string{"outcome"})
	Renames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tomekeeper_renames_total",
		Help: "Rename attempts, by outcome.",
	}, []string{"outcome"})
	PushedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tomekeeper_pushed_items_total",
		Help: "Library server push outcomes.",
	}, []string{"outcome"})
	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tomekeeper_reconcile_duration_seconds",
		Help:    "Wall time of one group reconciliation.",
		Buckets: prometheus.DefBuckets,
	})
)
