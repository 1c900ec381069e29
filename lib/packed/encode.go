// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package packed

import (
	"encoding/binary"

	"github.com/syncthing/fsmtok/lib/dump"
	"github.com/syncthing/fsmtok/lib/fsa"
)

// AutomatonSource is an automaton that can enumerate its structure, such
// as fsa.Automaton.
type AutomatonSource interface {
	fsa.RSDfa
	Finals() []int32
	Transitions(state int32) []fsa.Transition
	StateOws(state int32) []int32
	HasTransitionOws() bool
	HasStateOws() bool
}

// MapSource is a multi-map that can enumerate its keys, such as fsa.Map.
type MapSource interface {
	Keys() []int32
	Values(key int32) ([]int32, bool)
	MaxCount() int
}

// ReverseSource is an MPH reverse table that can enumerate its steps, such
// as fsa.Reverse.
type ReverseSource interface {
	Initial() int32
	IsFinal(state int32) bool
	StateCount() int
	Steps(state int32) []fsa.Transition
}

type encoder struct {
	buf []byte
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) i32(v int32) {
	e.u32(uint32(v))
}

func (e *encoder) put(off int, v uint32) {
	binary.LittleEndian.PutUint32(e.buf[off:], v)
}

// EncodeAutomaton serializes a into an automaton blob.
func EncodeAutomaton(a AutomatonSource) []byte {
	var flags uint32
	if a.HasTransitionOws() {
		flags |= flagMealy
	}
	maxOws := 0
	if a.HasStateOws() {
		flags |= flagMoore
		for s := 0; s < a.StateCount(); s++ {
			maxOws = max(maxOws, len(a.StateOws(int32(s))))
		}
	}
	alphabet := a.Alphabet()
	finals := a.Finals()

	e := &encoder{buf: dump.AppendHeader(nil, dump.KindAutomaton)}
	e.u32(flags)
	e.u32(uint32(a.StateCount()))
	e.i32(a.Initial())
	e.u32(uint32(len(alphabet)))
	e.u32(uint32(len(finals)))
	e.u32(uint32(maxOws))
	for _, iw := range alphabet {
		e.i32(iw)
	}
	for _, f := range finals {
		e.i32(f)
	}
	table := len(e.buf)
	for s := 0; s < a.StateCount(); s++ {
		e.u32(0)
	}
	for s := 0; s < a.StateCount(); s++ {
		e.put(table+4*s, uint32(len(e.buf)))
		ts := a.Transitions(int32(s))
		e.u32(uint32(len(ts)))
		for _, t := range ts {
			e.i32(t.Iw)
			e.i32(t.Dest)
			if flags&flagMealy != 0 {
				e.i32(t.Ow)
			}
		}
		if flags&flagMoore != 0 {
			ows := a.StateOws(int32(s))
			e.u32(uint32(len(ows)))
			for _, ow := range ows {
				e.i32(ow)
			}
		}
	}
	return e.buf
}

// EncodeMultiMap serializes m into a multi-map blob. Maps whose keys are
// dense from zero and whose values all have the same length use the fixed
// length layout.
func EncodeMultiMap(m MapSource) []byte {
	keys := m.Keys()
	nkeys := 0
	if len(keys) > 0 {
		nkeys = int(keys[len(keys)-1]) + 1
	}
	fixed := len(keys) == nkeys
	for _, k := range keys {
		if vals, _ := m.Values(k); len(vals) != m.MaxCount() {
			fixed = false
			break
		}
	}

	e := &encoder{buf: dump.AppendHeader(nil, dump.KindMultiMap)}
	if fixed {
		e.u32(modeFixed)
		e.u32(uint32(nkeys))
		e.u32(uint32(m.MaxCount()))
		e.u32(uint32(m.MaxCount()))
		for _, k := range keys {
			vals, _ := m.Values(k)
			for _, v := range vals {
				e.i32(v)
			}
		}
		return e.buf
	}

	e.u32(modeExplicit)
	e.u32(uint32(nkeys))
	e.u32(uint32(m.MaxCount()))
	table := len(e.buf)
	for k := 0; k < nkeys; k++ {
		e.i32(-1)
	}
	for _, k := range keys {
		vals, _ := m.Values(k)
		e.put(table+4*int(k), uint32(len(e.buf)))
		e.u32(uint32(len(vals)))
		for _, v := range vals {
			e.i32(v)
		}
	}
	return e.buf
}

// EncodeArray serializes vals into an array blob.
func EncodeArray(vals []int32) []byte {
	e := &encoder{buf: dump.AppendHeader(nil, dump.KindArray)}
	e.u32(uint32(len(vals)))
	for _, v := range vals {
		e.i32(v)
	}
	return e.buf
}

// EncodeReverse serializes r into an MPH reverse blob.
func EncodeReverse(r ReverseSource) []byte {
	var finals []int32
	for s := 0; s < r.StateCount(); s++ {
		if r.IsFinal(int32(s)) {
			finals = append(finals, int32(s))
		}
	}

	e := &encoder{buf: dump.AppendHeader(nil, dump.KindMphReverse)}
	e.u32(uint32(r.StateCount()))
	e.i32(r.Initial())
	e.u32(uint32(len(finals)))
	for _, f := range finals {
		e.i32(f)
	}
	table := len(e.buf)
	for s := 0; s < r.StateCount(); s++ {
		e.u32(0)
	}
	for s := 0; s < r.StateCount(); s++ {
		e.put(table+4*s, uint32(len(e.buf)))
		steps := r.Steps(int32(s))
		e.u32(uint32(len(steps)))
		for _, t := range steps {
			e.i32(t.Ow)
			e.i32(t.Iw)
			e.i32(t.Dest)
		}
	}
	return e.buf
}
