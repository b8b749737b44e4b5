package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsStarted counts crawl runs by trigger.
	runsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_runs_started_total",
		Help: "Total number of crawl runs started by trigger",
	}, []string{"trigger"})

	// retailerDuration tracks wall time per retailer crawl.
	retailerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawler_retailer_duration_seconds",
		Help:    "Time taken to crawl one retailer end to end",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"retailer"})

	// filesDownloaded counts downloaded price files per retailer.
	filesDownloaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_files_downloaded_total",
		Help: "Total number of price files downloaded by retailer",
	}, []string{"retailer"})

	// retailerFailures counts retailers that produced no downloads and at
	// least one error.
	retailerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_retailer_failures_total",
		Help: "Total number of failed retailer crawls",
	}, []string{"retailer"})

	// runTimeouts counts runs cut short by the run deadline.
	runTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_run_timeouts_total",
		Help: "Total number of runs that hit the run deadline",
	})
)
