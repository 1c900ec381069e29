// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package packed

import (
	"github.com/syncthing/fsmtok/lib/dump"
	"github.com/syncthing/fsmtok/lib/fsa"
)

const (
	flagMealy = 1 << 0
	flagMoore = 1 << 1
)

// Automaton header layout, following the blob header.
const (
	autFlags    = 8
	autStates   = 12
	autInitial  = 16
	autAlphabet = 20
	autFinals   = 24
	autMaxOws   = 28
	autData     = 32
)

// Automaton is a view of an automaton blob. It always implements RSDfa;
// the Mealy and Moore reactions are meaningful when the blob carries them,
// which NewMealy and NewMoore enforce.
type Automaton struct {
	blob     []byte
	flags    uint32
	states   int
	initial  int32
	alphabet []int32
	finals   int // offset of the finals array
	nfinals  int
	table    int // offset of the state offset table
	maxOws   int
	stride   int
}

var (
	_ fsa.RSDfa    = (*Automaton)(nil)
	_ fsa.Mealy    = (*Automaton)(nil)
	_ fsa.Moore    = (*Automaton)(nil)
	_ fsa.MooreSet = (*Automaton)(nil)
)

// NewAutomaton validates blob and returns a view of it.
func NewAutomaton(blob []byte) (*Automaton, error) {
	if err := dump.ExpectHeader(blob, dump.KindAutomaton); err != nil {
		return nil, err
	}
	r := dump.NewReader(blob, "automaton")
	if err := r.Check(0, autData); err != nil {
		return nil, err
	}
	a := &Automaton{blob: blob}
	a.flags = uint32(dump.Le32(blob, autFlags))
	a.states = int(uint32(dump.Le32(blob, autStates)))
	a.initial = dump.Le32(blob, autInitial)
	nalpha := int(uint32(dump.Le32(blob, autAlphabet)))
	a.nfinals = int(uint32(dump.Le32(blob, autFinals)))
	a.maxOws = int(uint32(dump.Le32(blob, autMaxOws)))
	a.stride = 8
	if a.flags&flagMealy != 0 {
		a.stride = 12
	}

	if a.states <= 0 || a.states > len(blob)/4 {
		return nil, r.Corrupt(autStates, "bad state count %d", a.states)
	}
	if a.initial < 0 || int(a.initial) >= a.states {
		return nil, r.Corrupt(autInitial, "initial state %d out of range", a.initial)
	}
	if nalpha > len(blob)/4 || a.nfinals > len(blob)/4 {
		return nil, r.Corrupt(autAlphabet, "alphabet or final count too large")
	}

	off := autData
	if err := r.Check(off, 4*nalpha); err != nil {
		return nil, err
	}
	a.alphabet = make([]int32, nalpha)
	for i := range a.alphabet {
		a.alphabet[i] = dump.Le32(blob, off+4*i)
		if i > 0 && a.alphabet[i] <= a.alphabet[i-1] {
			return nil, r.Corrupt(off+4*i, "alphabet not strictly increasing")
		}
	}
	off += 4 * nalpha

	a.finals = off
	if err := r.Check(off, 4*a.nfinals); err != nil {
		return nil, err
	}
	for i := 0; i < a.nfinals; i++ {
		f := dump.Le32(blob, off+4*i)
		if f < 0 || int(f) >= a.states || (i > 0 && f <= dump.Le32(blob, off+4*(i-1))) {
			return nil, r.Corrupt(off+4*i, "final state %d out of range or order", f)
		}
	}
	off += 4 * a.nfinals

	a.table = off
	if err := r.Check(off, 4*a.states); err != nil {
		return nil, err
	}
	for s := 0; s < a.states; s++ {
		if err := a.validateState(r, s); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Automaton) validateState(r dump.Reader, s int) error {
	off := int(uint32(dump.Le32(a.blob, a.table+4*s)))
	n, err := r.Count(off, a.stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		e := off + 4 + i*a.stride
		iw := dump.Le32(a.blob, e)
		dest := dump.Le32(a.blob, e+4)
		if i > 0 && iw <= dump.Le32(a.blob, e-a.stride) {
			return r.Corrupt(e, "state %d transitions not sorted", s)
		}
		if dest < 0 || int(dest) >= a.states {
			return r.Corrupt(e+4, "state %d destination %d out of range", s, dest)
		}
	}
	if a.flags&flagMoore == 0 {
		return nil
	}
	owsOff := off + 4 + n*a.stride
	k, err := r.Count(owsOff, 4)
	if err != nil {
		return err
	}
	if k > a.maxOws {
		return r.Corrupt(owsOff, "state %d has %d weights, more than the declared %d", s, k, a.maxOws)
	}
	return nil
}

// NewMealy returns a view of an automaton blob that must carry transition
// weights.
func NewMealy(blob []byte) (*Automaton, error) {
	a, err := NewAutomaton(blob)
	if err != nil {
		return nil, err
	}
	if a.flags&flagMealy == 0 {
		return nil, fsa.Corrupt("automaton", autFlags, "no transition weights")
	}
	return a, nil
}

// NewMoore returns a view of an automaton blob that must carry state
// weights.
func NewMoore(blob []byte) (*Automaton, error) {
	a, err := NewAutomaton(blob)
	if err != nil {
		return nil, err
	}
	if a.flags&flagMoore == 0 {
		return nil, fsa.Corrupt("automaton", autFlags, "no state weights")
	}
	return a, nil
}

func (a *Automaton) Initial() int32 {
	return a.initial
}

func (a *Automaton) StateCount() int {
	return a.states
}

func (a *Automaton) Alphabet() []int32 {
	return a.alphabet
}

func (a *Automaton) IsFinal(state int32) bool {
	lo, hi := 0, a.nfinals
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		v := dump.Le32(a.blob, a.finals+4*m)
		switch {
		case v == state:
			return true
		case v < state:
			lo = m + 1
		default:
			hi = m
		}
	}
	return false
}

// record returns the offset of the state record and its transition count.
func (a *Automaton) record(state int32) (int, int) {
	if state < 0 || int(state) >= a.states {
		return 0, 0
	}
	off := int(uint32(dump.Le32(a.blob, a.table+4*int(state))))
	return off, int(dump.Le32(a.blob, off))
}

// find returns the offset of the transition entry on iw, or -1.
func (a *Automaton) find(state, iw int32) int {
	off, n := a.record(state)
	lo, hi := 0, n
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		e := off + 4 + m*a.stride
		v := dump.Le32(a.blob, e)
		switch {
		case v == iw:
			return e
		case v < iw:
			lo = m + 1
		default:
			hi = m
		}
	}
	return -1
}

func (a *Automaton) Dest(state, iw int32) int32 {
	e := a.find(state, iw)
	if e < 0 {
		return fsa.NoState
	}
	return dump.Le32(a.blob, e+4)
}

func (a *Automaton) DestOw(state, iw int32) (int32, int32) {
	e := a.find(state, iw)
	if e < 0 {
		return fsa.NoState, fsa.NoWeight
	}
	if a.stride < 12 {
		return dump.Le32(a.blob, e+4), fsa.NoWeight
	}
	return dump.Le32(a.blob, e+4), dump.Le32(a.blob, e+8)
}

// ows returns the offset and count of the state's weight set.
func (a *Automaton) ows(state int32) (int, int) {
	if a.flags&flagMoore == 0 {
		return 0, 0
	}
	off, n := a.record(state)
	if off == 0 {
		return 0, 0
	}
	owsOff := off + 4 + n*a.stride
	return owsOff + 4, int(dump.Le32(a.blob, owsOff))
}

func (a *Automaton) Ow(state int32) int32 {
	off, k := a.ows(state)
	if k == 0 {
		return fsa.NoWeight
	}
	return dump.Le32(a.blob, off)
}

func (a *Automaton) Ows(state int32, out []int32) int {
	off, k := a.ows(state)
	if k <= len(out) {
		for i := 0; i < k; i++ {
			out[i] = dump.Le32(a.blob, off+4*i)
		}
	}
	return k
}

func (a *Automaton) MaxOwsCount() int {
	return a.maxOws
}

// HasTransitionOws reports whether the blob carries a Mealy reaction.
func (a *Automaton) HasTransitionOws() bool {
	return a.flags&flagMealy != 0
}

// HasStateOws reports whether the blob carries a Moore reaction.
func (a *Automaton) HasStateOws() bool {
	return a.flags&flagMoore != 0
}
