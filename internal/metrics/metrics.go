package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfextract",
			Name:      "extractions_total",
			Help:      "Extraction attempts by result (success, validation_error, load_error, build_error, busy, unavailable)",
		},
		[]string{"result"},
	)

	extractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfextract",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of extraction attempts by result",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	loadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfextract",
			Name:      "document_load_failures_total",
			Help:      "Source document load failures by kind (encrypted, corrupt)",
		},
		[]string{"kind"},
	)

	previews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfextract",
			Name:      "previews_total",
			Help:      "Page preview renders by result",
		},
		[]string{"result"},
	)

	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfextract",
			Name:      "upload_size_bytes",
			Help:      "Size of uploaded source documents",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(extractions, extractionDuration, loadFailures, previews, uploadBytes)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveExtraction(result string, dur time.Duration) {
	extractions.WithLabelValues(result).Inc()
	extractionDuration.WithLabelValues(result).Observe(dur.Seconds())
}

func IncLoadFailure(kind string) { loadFailures.WithLabelValues(kind).Inc() }

func IncPreview(result string) { previews.WithLabelValues(result).Inc() }

func ObserveUploadSize(n int) { uploadBytes.Observe(float64(n)) }
