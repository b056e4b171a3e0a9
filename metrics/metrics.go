// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_analysis_requests_total",
		Help: "Total number of pronunciation analysis requests",
	}, []string{"status"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pronunciation_analysis_duration_seconds",
		Help:    "Time spent processing pronunciation analysis requests",
		Buckets: prometheus.ExponentialBuckets(0.1, 2.0, 10), // 0.1s to ~51.2s
	})

	AnalysisCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_analysis_cache_total",
		Help: "Analysis cache lookups by result",
	}, []string{"result"}) // hit, miss, corrupt

	RecognitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pronunciation_recognition_duration_seconds",
		Help:    "Time spent in speech recognition",
		Buckets: prometheus.ExponentialBuckets(0.1, 2.0, 10),
	})

	AudioDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pronunciation_audio_duration_seconds",
		Help:    "Duration of recognized audio files",
		Buckets: prometheus.ExponentialBuckets(1, 2.0, 10), // 1s to ~512s
	})

	ClipSynthesis = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_clip_synthesis_total",
		Help: "Correction clip synthesis attempts by provider and outcome",
	}, []string{"provider", "outcome"}) // created, reused, failed

	ClipDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_clip_downloads_total",
		Help: "Correction clip download requests by status",
	}, []string{"status"})

	AuthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_auth_requests_total",
		Help: "Bearer token checks by accepting source or rejection reason",
	}, []string{"result"}) // redis, postgres, static, missing, rejected

	RetentionRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_retention_removed_total",
		Help: "Directories removed by the retention sweep",
	}, []string{"root"})
)
