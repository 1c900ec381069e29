// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package compile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/packed"
)

var (
	ErrConflict          = errors.New("rule conflicts with an earlier rule")
	ErrUndefinedFunction = errors.New("undefined function")
)

// An Elem is one position of a rule pattern: a set of symbols, matched
// once or, if Repeat is set, one or more times.
type Elem struct {
	Syms   []int32
	Repeat bool
}

// Sym matches one of the given symbols once.
func Sym(syms ...int32) Elem {
	return Elem{Syms: syms}
}

// Plus matches one of the given symbols one or more times.
func Plus(syms ...int32) Elem {
	return Elem{Syms: syms, Repeat: true}
}

// Lit matches the characters of s in sequence.
func Lit(s string) []Elem {
	var es []Elem
	for _, r := range s {
		es = append(es, Sym(r))
	}
	return es
}

// Range returns the symbols lo through hi inclusive.
func Range(lo, hi int32) []int32 {
	var syms []int32
	for c := lo; c <= hi; c++ {
		syms = append(syms, c)
	}
	return syms
}

// An Action is what the lexer does on a match: trim the matched span,
// emit Tag unless it is zero, and run the listed functions over the
// trimmed span.
type Action struct {
	Left, Right int32
	Tag         int32
	Calls       []int32
}

func (a Action) values() []int32 {
	return append([]int32{a.Left, a.Right, a.Tag}, a.Calls...)
}

// Rules is a set of patterns grouped in functions. Function 0 is the root.
type Rules struct {
	a       *fsa.Automaton
	fns     map[int32]int32 // function id to its initial state
	actions *fsa.Map
	byKey   map[string]int32
}

func NewRules() *Rules {
	a := fsa.NewAutomaton()
	a.SetReactions(false, true)
	return &Rules{
		a:       a,
		fns:     map[int32]int32{0: a.Initial()},
		actions: fsa.NewMap(),
		byKey:   make(map[string]int32),
	}
}

// Function returns the initial state of function fn, creating it if
// needed.
func (r *Rules) Function(fn int32) int32 {
	if s, ok := r.fns[fn]; ok {
		return s
	}
	s := r.a.AddState()
	r.fns[fn] = s
	return s
}

// Add adds a pattern to function fn.
func (r *Rules) Add(fn int32, pattern []Elem, act Action) error {
	if fn < 0 {
		return fmt.Errorf("function %d: %w", fn, ErrUndefinedFunction)
	}
	if len(pattern) == 0 {
		return errors.New("empty pattern")
	}
	if act.Tag < 0 || act.Tag > fsa.MaxTag {
		return fsa.LimitError("tag", int(act.Tag), fsa.MaxTag)
	}
	state := r.Function(fn)
	for i, e := range pattern {
		next, err := r.step(state, e)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		state = next
	}

	if r.a.IsFinal(state) {
		if vals, _ := r.actions.Values(r.a.Ow(state)); !slices.Equal(vals, act.values()) {
			return fmt.Errorf("pattern already has another action: %w", ErrConflict)
		}
		return nil
	}
	r.a.SetFinal(state, true)
	r.a.SetOws(state, r.action(act))
	return nil
}

// step returns the state reached from s over e, creating it if needed.
func (r *Rules) step(s int32, e Elem) (int32, error) {
	if len(e.Syms) == 0 {
		return fsa.NoState, errors.New("empty symbol set")
	}
	syms := slices.Clone(e.Syms)
	slices.Sort(syms)
	syms = slices.Compact(syms)

	dest := r.a.Dest(s, syms[0])
	for _, c := range syms[1:] {
		if r.a.Dest(s, c) != dest {
			return fsa.NoState, ErrConflict
		}
	}

	if dest == fsa.NoState {
		dest = r.a.AddState()
		for _, c := range syms {
			r.a.AddTransition(s, c, dest)
			if e.Repeat {
				r.a.AddTransition(dest, c, dest)
			}
		}
		return dest, nil
	}

	// Reuse an existing state only if it was created for exactly the same
	// element.
	if dest == s {
		return fsa.NoState, ErrConflict
	}
	in := 0
	for _, t := range r.a.Transitions(s) {
		if t.Dest == dest {
			in++
		}
	}
	if in != len(syms) {
		return fsa.NoState, ErrConflict
	}
	loops := 0
	for _, t := range r.a.Transitions(dest) {
		if t.Dest == dest {
			loops++
		}
	}
	if (e.Repeat && (loops != len(syms) || r.a.Dest(dest, syms[0]) != dest)) || (!e.Repeat && loops != 0) {
		return fsa.NoState, ErrConflict
	}
	return dest, nil
}

func (r *Rules) action(act Action) int32 {
	vals := act.values()
	key := chainKey(vals)
	if id, ok := r.byKey[key]; ok {
		return id
	}
	id := int32(len(r.byKey))
	r.byKey[key] = id
	r.actions.Set(id, vals...)
	return id
}

// Lexicon is a compiled rule set.
type Lexicon struct {
	// Automaton carries the action id of every final state as its Moore
	// weight.
	Automaton *fsa.Automaton
	Actions   *fsa.Map
	// Functions maps function ids to initial states; -1 marks a gap.
	Functions fsa.Slice
}

// Build compiles the rules, failing if an action calls an undefined
// function.
func (r *Rules) Build() (*Lexicon, error) {
	for _, key := range r.actions.Keys() {
		vals, _ := r.actions.Values(key)
		for _, fn := range vals[3:] {
			if _, ok := r.fns[fn]; !ok {
				return nil, fmt.Errorf("action %d calls function %d: %w", key, fn, ErrUndefinedFunction)
			}
		}
	}

	var n int32
	for fn := range r.fns {
		n = max(n, fn+1)
	}
	fns := make(fsa.Slice, n)
	for i := range fns {
		fns[i] = -1
	}
	for fn, s := range r.fns {
		fns[fn] = s
	}
	return &Lexicon{
		Automaton: r.a,
		Actions:   r.actions,
		Functions: fns,
	}, nil
}

// Section order used by Sections.
const (
	SectionRules = iota
	SectionActions
	SectionFunctions
)

// Sections encodes the lexicon as blobs, in the order given by the Section
// constants.
func (l *Lexicon) Sections() [][]byte {
	return [][]byte{
		SectionRules:     packed.EncodeAutomaton(l.Automaton),
		SectionActions:   packed.EncodeMultiMap(l.Actions),
		SectionFunctions: packed.EncodeArray(l.Functions),
	}
}
