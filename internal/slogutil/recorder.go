// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

const maxLogLines = 1000

// A Recorder keeps the most recent log lines in memory.
type Recorder interface {
	Since(t time.Time) []Line
	Clear()
}

// lineRecorder is a ring of the last len(ring) lines at or above level.
type lineRecorder struct {
	level slog.Level

	mut  sync.Mutex
	ring []Line
	next int // index of the oldest line once the ring is full
	full bool
}

func newLineRecorder(level slog.Level, size int) *lineRecorder {
	return &lineRecorder{level: level, ring: make([]Line, 0, size)}
}

func (r *lineRecorder) record(line Line) {
	if line.Level < r.level {
		return
	}
	r.mut.Lock()
	defer r.mut.Unlock()
	if !r.full {
		r.ring = append(r.ring, line)
		r.full = len(r.ring) == cap(r.ring)
		return
	}
	r.ring[r.next] = line
	r.next = (r.next + 1) % len(r.ring)
}

func (r *lineRecorder) Clear() {
	r.mut.Lock()
	r.ring = r.ring[:0]
	r.next = 0
	r.full = false
	r.mut.Unlock()
}

// Since returns the recorded lines newer than t, oldest first. Lines are
// recorded in time order, so the first match is found by binary search.
func (r *lineRecorder) Since(t time.Time) []Line {
	r.mut.Lock()
	defer r.mut.Unlock()
	n := len(r.ring)
	at := func(i int) Line { return r.ring[(r.next+i)%n] }
	first := sort.Search(n, func(i int) bool { return at(i).When.After(t) })
	if first == n {
		return nil
	}
	res := make([]Line, 0, n-first)
	for i := first; i < n; i++ {
		res = append(res, at(i))
	}
	return res
}
