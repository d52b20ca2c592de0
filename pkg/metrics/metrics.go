package metrics

import "github.com/prometheus/client_golang/prometheus"

var ExportsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chartdesk_exports_total",
		Help: "number of rendered exports",
	}, []string{"format", "view"})

var ExportDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chartdesk_export_duration_seconds",
		Help:    "time spent building and painting an export",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

var SkippedAnnotations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chartdesk_skipped_annotations_total",
		Help: "annotations skipped on render because their timestamps are not in the series",
	}, []string{"symbol"})

var AnnotationCount = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "chartdesk_annotations",
		Help: "number of annotations per session",
	}, []string{"session"})

var AutoSaveTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chartdesk_autosave_total",
		Help: "debounced session writes",
	}, []string{"result"})

var FetchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chartdesk_fetch_total",
		Help: "series fetches",
	}, []string{"source", "result"})

var OverlayRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "chartdesk_overlay_rejections_total",
		Help: "rejected overlay uploads",
	})

func init() {
	prometheus.MustRegister(
		ExportsTotal,
		ExportDuration,
		SkippedAnnotations,
		AnnotationCount,
		AutoSaveTotal,
		FetchTotal,
		OverlayRejectionsTotal,
	)
}
