// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package mph interprets minimal perfect hash automata: deterministic
// acceptors whose transition weights sum, along the path of an accepted
// chain, to a dense id.
package mph

import (
	"github.com/syncthing/fsmtok/lib/fsa"
)

// MPH maps chains to ids and, given a reverse table, ids to chains. It
// holds no mutable state and may be shared between goroutines.
type MPH struct {
	dfa    fsa.RSDfa
	mealy  fsa.Mealy
	rev    fsa.MphReverse
	maxLen int
}

// New returns an MPH over dfa and its Mealy reaction. The reverse table is
// optional; without it Chain always fails.
func New(dfa fsa.RSDfa, mealy fsa.Mealy, rev fsa.MphReverse) (*MPH, error) {
	if dfa == nil || mealy == nil {
		return nil, fsa.ErrNotConfigured
	}
	return &MPH{
		dfa:    dfa,
		mealy:  mealy,
		rev:    rev,
		maxLen: fsa.MaxWordLen,
	}, nil
}

func (m *MPH) Initial() int32 {
	return m.dfa.Initial()
}

func (m *MPH) IsFinal(state int32) bool {
	return m.dfa.IsFinal(state)
}

// Next follows the transition on iw, returning the destination and the
// weight to add to the id, or NoState.
func (m *MPH) Next(state, iw int32) (int32, int32) {
	return m.mealy.DestOw(state, iw)
}

// ID returns the id of chain, or -1 if the chain is not accepted.
func (m *MPH) ID(chain []int32) int32 {
	return IDOf(m, chain)
}

// IDOf is ID for chains of any symbol width.
func IDOf[S fsa.Symbol](m *MPH, chain []S) int32 {
	state := m.dfa.Initial()
	var id int32
	for _, c := range chain {
		dest, ow := m.mealy.DestOw(state, int32(c))
		if dest == fsa.NoState {
			return -1
		}
		if ow > 0 {
			id += ow
		}
		state = dest
	}
	if !m.dfa.IsFinal(state) {
		return -1
	}
	return id
}

// Chain returns the length of the chain with the given id, or -1 if there
// is none. The chain is copied into out only if it fits.
func (m *MPH) Chain(id int32, out []int32) int {
	if m.rev == nil || id < 0 {
		return -1
	}
	n := m.walk(id, nil)
	if n > 0 && n <= len(out) {
		m.walk(id, out)
	}
	return n
}

// walk follows the reverse table from id, writing symbols into out when
// it is not nil.
func (m *MPH) walk(id int32, out []int32) int {
	state := m.rev.Initial()
	residual := id
	for n := 0; n <= m.maxLen; n++ {
		if residual == 0 && m.rev.IsFinal(state) {
			return n
		}
		dest, iw, ow := m.rev.Step(state, residual)
		if dest == fsa.NoState || ow < 0 {
			return -1
		}
		if out != nil {
			out[n] = iw
		}
		residual -= ow
		state = dest
	}
	return -1
}
