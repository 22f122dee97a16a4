package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	imagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grainscan_images_total",
			Help: "Total number of analyzed images",
		},
		[]string{"status"}, // status: ok, canceled
	)

	imageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grainscan_image_duration_seconds",
			Help:    "Image analysis duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	componentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grainscan_components_total",
			Help: "Total number of labelled components by outcome",
		},
		[]string{"outcome"}, // outcome: measured, failed, discarded
	)

	segmentsPerComponent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grainscan_segments_per_component",
			Help:    "Number of digital straight segments per measured component",
			Buckets: []float64{4, 8, 16, 32, 64, 128, 256, 512},
		},
	)
)
