// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package segment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "segment",
		Name:      "calls_total",
		Help:      "Total number of segmentation calls, per engine",
	}, []string{"engine"})
	metricTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "segment",
		Name:      "tokens_total",
		Help:      "Total number of tokens produced, per engine",
	}, []string{"engine"})
	metricSeconds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "segment",
		Name:      "seconds_total",
		Help:      "Total time spent segmenting, per engine",
	}, []string{"engine"})
	metricErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "segment",
		Name:      "errors_total",
		Help:      "Total number of failed segmentation calls, per engine",
	}, []string{"engine"})
)

// MetricsWrap returns a Segmenter that accounts calls to s under the given
// engine name.
func MetricsWrap(s Segmenter, engine string) Segmenter {
	return metricsSegmenter{Segmenter: s, engine: engine}
}

type metricsSegmenter struct {
	Segmenter
	engine string
}

func (m metricsSegmenter) account() func(n int, err error) {
	t0 := time.Now()
	return func(n int, err error) {
		if dur := time.Since(t0).Seconds(); dur > 0 {
			metricSeconds.WithLabelValues(m.engine).Add(dur)
		}
		metricCalls.WithLabelValues(m.engine).Inc()
		if err != nil {
			metricErrors.WithLabelValues(m.engine).Inc()
			return
		}
		metricTokens.WithLabelValues(m.engine).Add(float64(n))
	}
}

func (m metricsSegmenter) Process(in []int32, out []Token, unk int32) (int, error) {
	done := m.account()
	n, err := m.Segmenter.Process(in, out, unk)
	done(n, err)
	return n, err
}
