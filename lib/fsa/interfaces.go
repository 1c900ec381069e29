// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package fsa

// RSDfa is a deterministic acceptor.
type RSDfa interface {
	Initial() int32
	IsFinal(state int32) bool
	// Dest returns the destination of the transition on iw, or NoState.
	Dest(state, iw int32) int32
	// Alphabet returns the sorted, unique input weights used by any
	// transition. The returned slice must not be modified.
	Alphabet() []int32
	StateCount() int
}

// Mealy attaches an output weight to every transition.
type Mealy interface {
	// DestOw returns the destination and the output weight of the
	// transition on iw. The destination is NoState if there is no such
	// transition.
	DestOw(state, iw int32) (dest, ow int32)
}

// Moore attaches at most one output weight to a state.
type Moore interface {
	// Ow returns the weight of the state or NoWeight.
	Ow(state int32) int32
}

// MooreSet attaches a set of output weights to a state.
type MooreSet interface {
	// Ows returns the number of weights attached to the state, copying
	// them into out if it is large enough. Out is untouched otherwise.
	Ows(state int32, out []int32) int
	// MaxOwsCount is the size of the largest weight set.
	MaxOwsCount() int
}

// MultiMap maps non-negative keys to ordered value sequences.
type MultiMap interface {
	// Get returns the number of values stored for key, or -1 if the key is
	// absent. Values are copied into out only if they all fit.
	Get(key int32, out []int32) int
	// MaxCount is the length of the longest value sequence.
	MaxCount() int
}

// Array maps indexes to values.
type Array interface {
	// At returns the value at i, or -1 if i is out of range.
	At(i int32) int32
	Len() int
}

// MphReverse walks a minimal perfect hash automaton backwards, from an id
// to the chain that produces it.
type MphReverse interface {
	Initial() int32
	IsFinal(state int32) bool
	// Step picks the transition of state with the greatest output weight
	// not exceeding residual. Dest is NoState when there is none.
	Step(state, residual int32) (dest, iw, ow int32)
}

// A Transition is one outgoing edge of a state, as enumerated by builders
// and encoders.
type Transition struct {
	Iw   int32
	Dest int32
	Ow   int32
}
