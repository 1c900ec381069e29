// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package fsa

import (
	"cmp"
	"slices"
)

// Automaton is a mutable, in-memory automaton. Depending on what has been
// set on it, it acts as an RSDfa, a Mealy reaction, a Moore reaction and a
// Moore set reaction at the same time. It is used by builders and tests and
// is encoded into the packed format by package packed.
type Automaton struct {
	initial  int32
	final    []bool
	trans    [][]Transition // per state, sorted by Iw
	ows      [][]int32
	mealy    bool
	moore    bool
	alphabet []int32 // cached, nil when stale
}

var (
	_ RSDfa    = (*Automaton)(nil)
	_ Mealy    = (*Automaton)(nil)
	_ Moore    = (*Automaton)(nil)
	_ MooreSet = (*Automaton)(nil)
)

// NewAutomaton returns an automaton with a single, initial, non-final
// state 0.
func NewAutomaton() *Automaton {
	a := &Automaton{}
	a.AddState()
	return a
}

func (a *Automaton) AddState() int32 {
	a.final = append(a.final, false)
	a.trans = append(a.trans, nil)
	a.ows = append(a.ows, nil)
	return int32(len(a.final) - 1)
}

func (a *Automaton) valid(state int32) bool {
	return state >= 0 && int(state) < len(a.final)
}

func (a *Automaton) SetInitial(state int32) {
	if a.valid(state) {
		a.initial = state
	}
}

func (a *Automaton) SetFinal(state int32, final bool) {
	if a.valid(state) {
		a.final[state] = final
	}
}

// AddTransition adds or replaces the transition from state on iw.
func (a *Automaton) AddTransition(from, iw, to int32) {
	a.AddTransitionOw(from, iw, to, NoWeight)
}

// AddTransitionOw adds or replaces the transition from state on iw,
// attaching the output weight ow to it.
func (a *Automaton) AddTransitionOw(from, iw, to, ow int32) {
	if !a.valid(from) || !a.valid(to) {
		return
	}
	if ow != NoWeight {
		a.mealy = true
	}
	ts := a.trans[from]
	i, found := slices.BinarySearchFunc(ts, iw, func(t Transition, iw int32) int {
		return cmp.Compare(t.Iw, iw)
	})
	if found {
		ts[i] = Transition{Iw: iw, Dest: to, Ow: ow}
		return
	}
	a.trans[from] = slices.Insert(ts, i, Transition{Iw: iw, Dest: to, Ow: ow})
	a.alphabet = nil
}

// SetReactions declares which reactions the automaton carries, regardless
// of the weights set so far.
func (a *Automaton) SetReactions(mealy, moore bool) {
	a.mealy = mealy
	a.moore = moore
}

// SetOws attaches the given output weights to a state, replacing any
// previous ones.
func (a *Automaton) SetOws(state int32, ows ...int32) {
	if !a.valid(state) {
		return
	}
	a.moore = true
	a.ows[state] = slices.Clone(ows)
}

func (a *Automaton) Initial() int32 {
	return a.initial
}

func (a *Automaton) IsFinal(state int32) bool {
	return a.valid(state) && a.final[state]
}

func (a *Automaton) StateCount() int {
	return len(a.final)
}

func (a *Automaton) find(state, iw int32) (Transition, bool) {
	if !a.valid(state) {
		return Transition{}, false
	}
	ts := a.trans[state]
	i, found := slices.BinarySearchFunc(ts, iw, func(t Transition, iw int32) int {
		return cmp.Compare(t.Iw, iw)
	})
	if !found {
		return Transition{}, false
	}
	return ts[i], true
}

func (a *Automaton) Dest(state, iw int32) int32 {
	if t, ok := a.find(state, iw); ok {
		return t.Dest
	}
	return NoState
}

func (a *Automaton) DestOw(state, iw int32) (int32, int32) {
	if t, ok := a.find(state, iw); ok {
		return t.Dest, t.Ow
	}
	return NoState, NoWeight
}

func (a *Automaton) Alphabet() []int32 {
	if a.alphabet != nil {
		return a.alphabet
	}
	var iws []int32
	for _, ts := range a.trans {
		for _, t := range ts {
			iws = append(iws, t.Iw)
		}
	}
	slices.Sort(iws)
	a.alphabet = slices.Compact(iws)
	if a.alphabet == nil {
		a.alphabet = []int32{}
	}
	return a.alphabet
}

func (a *Automaton) Ow(state int32) int32 {
	if !a.valid(state) || len(a.ows[state]) == 0 {
		return NoWeight
	}
	return a.ows[state][0]
}

func (a *Automaton) Ows(state int32, out []int32) int {
	if !a.valid(state) {
		return 0
	}
	ows := a.ows[state]
	if len(ows) <= len(out) {
		copy(out, ows)
	}
	return len(ows)
}

func (a *Automaton) MaxOwsCount() int {
	n := 0
	for _, ows := range a.ows {
		n = max(n, len(ows))
	}
	return n
}

// Finals returns the sorted final states.
func (a *Automaton) Finals() []int32 {
	var fs []int32
	for s, f := range a.final {
		if f {
			fs = append(fs, int32(s))
		}
	}
	return fs
}

// Transitions returns the outgoing transitions of state sorted by input
// weight. The returned slice must not be modified.
func (a *Automaton) Transitions(state int32) []Transition {
	if !a.valid(state) {
		return nil
	}
	return a.trans[state]
}

// StateOws returns the weights attached to state. The returned slice must
// not be modified.
func (a *Automaton) StateOws(state int32) []int32 {
	if !a.valid(state) {
		return nil
	}
	return a.ows[state]
}

// HasTransitionOws reports whether any transition carries a weight.
func (a *Automaton) HasTransitionOws() bool {
	return a.mealy
}

// HasStateOws reports whether weights have been attached to states.
func (a *Automaton) HasStateOws() bool {
	return a.moore
}
