package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var TotalRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bimexport_http_requests_total",
		Help: "Number of handled http requests.",
	},
	[]string{"path", "code", "method"},
)

var HttpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "bimexport_http_request_duration_seconds_histogram",
		Buckets: []float64{
			0.1, // 100 ms
			0.2,
			0.25,
			0.5,
			1,
			1.5,
			3,
			5,
			10,
		},
	},
	[]string{"path", "code", "method"},
)

var ArchivedFiles = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "bimexport_archived_files_total",
		Help: "Files successfully added to bulk download archives.",
	},
)

var SkippedFiles = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "bimexport_skipped_files_total",
		Help: "Files dropped from bulk download archives after resolution or fetch failures.",
	},
)
