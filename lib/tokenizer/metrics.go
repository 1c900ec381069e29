// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package tokenizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "tokenizer",
		Name:      "operations_total",
		Help:      "Total number of tokenizer operations, per model and operation",
	}, []string{"model", "operation"})
	metricOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "tokenizer",
		Name:      "operation_errors_total",
		Help:      "Total number of failed tokenizer operations, per model and operation",
	}, []string{"model", "operation"})
	metricLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "tokenizer",
		Name:      "loads_total",
		Help:      "Total number of model loads, per result",
	}, []string{"result"})
)

const (
	opWords     = "words"
	opSentences = "sentences"
	opIDs       = "ids"
	opText      = "text"
	opInfo      = "info"
	opInts      = "ints"
)

// account counts an operation and returns a function that counts its
// failure, if any.
func (m *Model) account(op string) func(error) {
	metricOperations.WithLabelValues(m.man.Name, op).Inc()
	return func(err error) {
		if err != nil {
			metricOperationErrors.WithLabelValues(m.man.Name, op).Inc()
		}
	}
}
