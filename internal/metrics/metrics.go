package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SectionCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_section_commits_total",
			Help: "Total number of section commits by outcome",
		},
		[]string{"section", "status"},
	)

	SectionCommitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_section_commit_duration_seconds",
			Help:    "Duration of section commits in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"section"},
	)

	CropDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfolio_crop_duration_seconds",
			Help:    "Duration of photo crop rasterization in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	DraftWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_draft_writes_total",
			Help: "Total number of draft cache writes",
		},
		[]string{"section"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_editing_sessions_active",
			Help: "Number of open editing sessions",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
