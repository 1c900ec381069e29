// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package fsa

import (
	"cmp"
	"maps"
	"slices"
)

// Map is an in-memory MultiMap.
type Map struct {
	vals     map[int32][]int32
	maxCount int
}

var _ MultiMap = (*Map)(nil)

func NewMap() *Map {
	return &Map{vals: make(map[int32][]int32)}
}

// Set stores a copy of vals under key. Negative keys are ignored.
func (m *Map) Set(key int32, vals ...int32) {
	if key < 0 {
		return
	}
	m.vals[key] = slices.Clone(vals)
	m.maxCount = max(m.maxCount, len(vals))
}

func (m *Map) Get(key int32, out []int32) int {
	vals, ok := m.vals[key]
	if !ok {
		return -1
	}
	if len(vals) <= len(out) {
		copy(out, vals)
	}
	return len(vals)
}

// Values returns the values stored under key. The returned slice must not
// be modified.
func (m *Map) Values(key int32) ([]int32, bool) {
	vals, ok := m.vals[key]
	return vals, ok
}

func (m *Map) MaxCount() int {
	return m.maxCount
}

// Keys returns the stored keys in increasing order.
func (m *Map) Keys() []int32 {
	return slices.Sorted(maps.Keys(m.vals))
}

// Slice is an in-memory Array.
type Slice []int32

var _ Array = Slice(nil)

func (s Slice) At(i int32) int32 {
	if i < 0 || int(i) >= len(s) {
		return -1
	}
	return s[i]
}

func (s Slice) Len() int {
	return len(s)
}

// Reverse is an in-memory MphReverse.
type Reverse struct {
	initial int32
	final   []bool
	steps   [][]Transition // per state, sorted by Ow
}

var _ MphReverse = (*Reverse)(nil)

// NewReverse returns a reverse table with the given number of states.
func NewReverse(states int, initial int32) *Reverse {
	return &Reverse{
		initial: initial,
		final:   make([]bool, states),
		steps:   make([][]Transition, states),
	}
}

func (r *Reverse) valid(state int32) bool {
	return state >= 0 && int(state) < len(r.final)
}

func (r *Reverse) SetFinal(state int32) {
	if r.valid(state) {
		r.final[state] = true
	}
}

// AddStep registers that from state, consuming ow of the residual id,
// emits iw and continues in dest.
func (r *Reverse) AddStep(state, ow, iw, dest int32) {
	if !r.valid(state) {
		return
	}
	ts := append(r.steps[state], Transition{Iw: iw, Dest: dest, Ow: ow})
	slices.SortStableFunc(ts, func(a, b Transition) int {
		return cmp.Compare(a.Ow, b.Ow)
	})
	r.steps[state] = ts
}

func (r *Reverse) Initial() int32 {
	return r.initial
}

func (r *Reverse) IsFinal(state int32) bool {
	return r.valid(state) && r.final[state]
}

func (r *Reverse) StateCount() int {
	return len(r.final)
}

// Steps returns the steps of state sorted by output weight.
func (r *Reverse) Steps(state int32) []Transition {
	if !r.valid(state) {
		return nil
	}
	return r.steps[state]
}

func (r *Reverse) Step(state, residual int32) (int32, int32, int32) {
	if !r.valid(state) {
		return NoState, 0, 0
	}
	ts := r.steps[state]
	// First index with Ow > residual; the candidate is the one before.
	i, _ := slices.BinarySearchFunc(ts, residual+1, func(t Transition, ow int32) int {
		return cmp.Compare(t.Ow, ow)
	})
	if i == 0 {
		return NoState, 0, 0
	}
	t := ts[i-1]
	return t.Dest, t.Iw, t.Ow
}
