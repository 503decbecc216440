package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinylink_links_created_total",
			Help: "Links created, partitioned by how the code was chosen",
		},
		[]string{"source"},
	)

	linksDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tinylink_links_deleted_total",
			Help: "Links deleted",
		},
	)

	redirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinylink_redirects_total",
			Help: "Resolved redirects, partitioned by whether the target came from cache",
		},
		[]string{"cache"},
	)

	clickRecordFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tinylink_click_record_failures_total",
			Help: "Redirects served without their click being recorded",
		},
	)

	codeGenerationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tinylink_code_generation_attempts",
			Help:    "Attempts needed to obtain a free generated code",
			Buckets: []float64{1, 2, 3, 5, 10},
		},
	)
)
