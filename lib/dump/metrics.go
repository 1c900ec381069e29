// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOpenFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "dump",
		Name:      "open_total",
		Help:      "Total number of dump files opened, per compression",
	}, []string{"format"})
	metricOpenBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fsmtok",
		Subsystem: "dump",
		Name:      "open_bytes_total",
		Help:      "Total amount of dump data loaded, after decompression",
	}, []string{"format"})
)
