// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package digitizer reduces a chain of symbols to a single output symbol,
// either by running it through a Moore automaton or by looking it up in a
// dictionary.
package digitizer

import (
	"log/slog"
	"slices"

	"github.com/syncthing/fsmtok/lib/dict"
	"github.com/syncthing/fsmtok/lib/fsa"
)

// Symbols below this value are mapped through a dense table; larger ones
// are binary searched in the alphabet.
const denseLimit = 0x10000

// AutomatonConf configures an automaton digitizer.
type AutomatonConf struct {
	Dfa   fsa.RSDfa
	Moore fsa.Moore
	// AnyIw is fed for symbols outside the alphabet of Dfa when HasAnyIw
	// is set. Otherwise fsa.Any is fed.
	AnyIw    int32
	HasAnyIw bool
	// AnyOw is returned when the chain is not recognized.
	AnyOw      int32
	IgnoreCase bool
}

// Automaton digitizes chains with a Moore automaton.
type Automaton struct {
	conf     AutomatonConf
	dense    []int32
	alphabet []int32
}

func NewAutomaton(conf AutomatonConf) (*Automaton, error) {
	if conf.Dfa == nil || conf.Moore == nil {
		return nil, fsa.ErrNotConfigured
	}
	if !conf.HasAnyIw {
		conf.AnyIw = fsa.Any
	}
	d := &Automaton{conf: conf}
	d.prepare()
	slog.Debug("Configured automaton digitizer", "alphabet", len(d.alphabet), "dense", len(d.dense))
	return d, nil
}

// prepare builds the symbol to input weight table.
func (d *Automaton) prepare() {
	d.alphabet = d.conf.Dfa.Alphabet()
	var top int32 = -1
	for _, iw := range d.alphabet {
		if iw >= 0 && iw < denseLimit {
			top = iw
		}
	}
	d.dense = make([]int32, top+1)
	for i := range d.dense {
		d.dense[i] = d.conf.AnyIw
	}
	for _, iw := range d.alphabet {
		if iw >= 0 && iw < denseLimit {
			d.dense[iw] = iw
		}
	}
}

func (d *Automaton) iw(c int32) int32 {
	if d.conf.IgnoreCase {
		c = fsa.Fold(c)
	}
	if c >= 0 && int(c) < len(d.dense) {
		return d.dense[c]
	}
	if c >= denseLimit && !fsa.IsControl(c) {
		if _, ok := slices.BinarySearch(d.alphabet, c); ok {
			return c
		}
	}
	return d.conf.AnyIw
}

// Process returns the output symbol of chain.
func (d *Automaton) Process(chain []int32) int32 {
	return ProcessOf(d, chain)
}

// ProcessOf is Process for chains of any symbol width.
func ProcessOf[S fsa.Symbol](d *Automaton, chain []S) int32 {
	state := d.conf.Dfa.Initial()
	for _, c := range chain {
		state = d.conf.Dfa.Dest(state, d.iw(int32(c)))
		if state == fsa.NoState {
			return d.conf.AnyOw
		}
	}
	if ow := d.conf.Moore.Ow(state); ow != fsa.NoWeight {
		return ow
	}
	return d.conf.AnyOw
}

// Dict digitizes words through a dictionary and an info id to output
// symbol array.
type Dict struct {
	dict  *dict.Interpreter
	ows   fsa.Array
	anyOw int32
}

func NewDict(d *dict.Interpreter, ows fsa.Array, anyOw int32) (*Dict, error) {
	if d == nil || ows == nil {
		return nil, fsa.ErrNotConfigured
	}
	return &Dict{dict: d, ows: ows, anyOw: anyOw}, nil
}

// Process returns the output symbol of word.
func (d *Dict) Process(word []int32) int32 {
	id, err := d.dict.WordToInfoID(word)
	if err != nil {
		return d.anyOw
	}
	return d.ProcessID(id)
}

// ProcessID returns the output symbol of an already resolved info id.
func (d *Dict) ProcessID(id int32) int32 {
	if ow := d.ows.At(id); ow >= 0 {
		return ow
	}
	return d.anyOw
}
