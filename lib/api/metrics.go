// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rcrowley/go-metrics"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of API requests, per route and status code",
	}, []string{"route", "code"})
	metricRequestBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "api",
		Name:      "response_bytes_total",
		Help:      "Total amount of response data, per route",
	}, []string{"route"})
)

// timed wraps h to account its requests under the route name, both in the
// in-process timers shown by /rest/debug/httpmetrics and in Prometheus.
func timed(route string, h http.Handler) http.Handler {
	timer := metrics.GetOrRegisterTimer(route, nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := asStatusWriter(w)
		t0 := time.Now()
		h.ServeHTTP(sw, r)
		timer.UpdateSince(t0)
		metricRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		metricRequestBytes.WithLabelValues(route).Add(float64(sw.written))
	})
}

type timerStats struct {
	Count         int64     `json:"count"`
	SumMs         float64   `json:"sumMs"`
	RatesPerS     []float64 `json:"ratesPerS"`
	PercentilesMs []float64 `json:"percentilesMs"` // 50, 95, 99
}

func (*service) getSystemHTTPMetrics(w http.ResponseWriter, _ *http.Request) {
	const nsPerMs = 1e6
	stats := make(map[string]timerStats)
	metrics.Each(func(name string, m any) {
		t, ok := m.(metrics.Timer)
		if !ok {
			return
		}
		t = t.Snapshot()
		pct := t.Percentiles([]float64{0.50, 0.95, 0.99})
		for i := range pct {
			pct[i] /= nsPerMs
		}
		stats[name] = timerStats{
			Count:         t.Count(),
			SumMs:         float64(t.Sum()) / nsPerMs,
			RatesPerS:     []float64{t.Rate1(), t.Rate5(), t.Rate15()},
			PercentilesMs: pct,
		}
	})
	sendJSON(w, stats)
}

// statusWriter remembers the status code and the number of bytes written.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

// asStatusWriter reuses w if an outer handler already wrapped it.
func asStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(bs []byte) (int, error) {
	n, err := w.ResponseWriter.Write(bs)
	w.written += int64(n)
	return n, err
}
