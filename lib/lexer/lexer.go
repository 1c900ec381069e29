// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lexer tokenizes inputs with a Moore automaton whose final states
// carry actions. Matching is leftmost-first and longest-match; actions may
// trim the match, tag it and call functions (sub-automata) over the
// trimmed span, up to a configured depth.
package lexer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// DefaultSubstitute replaces input symbols that collide with control
// symbols.
const DefaultSubstitute = 0xFFFD

// Action layout.
const (
	actLeft = iota
	actRight
	actTag
	actCalls
)

var ErrInvalidConf = errors.New("invalid lexer configuration")

// A Token is a tagged span of the input. From and To are inclusive.
type Token struct {
	Tag  int32
	From int
	To   int
}

// Input is a sequence of positions fed to the automaton one position at a
// time. A position may stand for more than one symbol.
type Input interface {
	Len() int
	// Feed follows the symbols at position i from state and returns the
	// state reached, or NoState.
	Feed(dfa fsa.RSDfa, state int32, i int) int32
}

// Step follows the transition on iw, falling back to the transition on
// fsa.Any.
func Step(dfa fsa.RSDfa, state, iw int32) int32 {
	if dest := dfa.Dest(state, iw); dest != fsa.NoState {
		return dest
	}
	return dfa.Dest(state, fsa.Any)
}

// Conf configures an Engine. Dfa, Moore and Actions are required. Moore
// gives the action id of every final state; Actions maps action ids to
// (left trim, right trim, tag, function ids...). Functions maps function
// ids to initial states; function 0 is the root and defaults to the
// initial state of Dfa.
type Conf struct {
	Dfa       fsa.RSDfa
	Moore     fsa.Moore
	Actions   fsa.MultiMap
	Functions fsa.Array

	// MaxDepth bounds nested function calls. Zero means fsa.MaxDepth.
	MaxDepth int
	// MaxTokenLength bounds the number of positions a match may span,
	// anchors included. Zero means no bound.
	MaxTokenLength int
	// MaxInputLength bounds the input length. Zero means fsa.MaxInputLen.
	MaxInputLength int

	IgnoreCase bool
	// Substitute replaces input symbols that collide with control
	// symbols. Zero means DefaultSubstitute.
	Substitute int32
}

// Engine is a configured lexer. It keeps scratch buffers and must not be
// used concurrently.
type Engine struct {
	conf      Conf
	fnInitial []int32
	acts      [][]int32 // per depth
	toks      []Token
	text      textInput
}

func New(conf Conf) (*Engine, error) {
	if conf.Dfa == nil || conf.Moore == nil || conf.Actions == nil {
		return nil, fsa.ErrNotConfigured
	}
	switch {
	case conf.MaxDepth == 0:
		conf.MaxDepth = fsa.MaxDepth
	case conf.MaxDepth < 0 || conf.MaxDepth > fsa.MaxDepth:
		return nil, fsa.LimitError("depth", conf.MaxDepth, fsa.MaxDepth)
	}
	if conf.MaxInputLength <= 0 {
		conf.MaxInputLength = fsa.MaxInputLen
	}
	if conf.Substitute == 0 {
		conf.Substitute = DefaultSubstitute
	}

	e := &Engine{conf: conf}
	e.fnInitial = []int32{conf.Dfa.Initial()}
	if fns := conf.Functions; fns != nil {
		e.fnInitial = make([]int32, max(fns.Len(), 1))
		for i := range e.fnInitial {
			e.fnInitial[i] = fns.At(int32(i))
		}
		if e.fnInitial[0] == fsa.NoState {
			e.fnInitial[0] = conf.Dfa.Initial()
		}
		for fn, s := range e.fnInitial {
			if s < fsa.NoState || s >= int32(conf.Dfa.StateCount()) {
				return nil, fmt.Errorf("function %d starts at state %d out of range: %w", fn, s, ErrInvalidConf)
			}
		}
	}

	e.acts = make([][]int32, conf.MaxDepth+1)
	for i := range e.acts {
		e.acts[i] = make([]int32, conf.Actions.MaxCount())
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	slog.Debug("Configured lexer", "states", conf.Dfa.StateCount(), "functions", len(e.fnInitial), "maxDepth", conf.MaxDepth, "maxTokenLength", conf.MaxTokenLength, "ignoreCase", conf.IgnoreCase)
	return e, nil
}

// validate checks the action of every final state, so that queries never
// meet an undefined action or function.
func (e *Engine) validate() error {
	buf := e.acts[0]
	for s := int32(0); s < int32(e.conf.Dfa.StateCount()); s++ {
		if !e.conf.Dfa.IsFinal(s) {
			continue
		}
		id := e.conf.Moore.Ow(s)
		if id == fsa.NoWeight {
			return fmt.Errorf("final state %d has no action: %w", s, ErrInvalidConf)
		}
		n := e.conf.Actions.Get(id, buf)
		if n < actCalls || n > len(buf) {
			return fmt.Errorf("state %d: action %d has %d values: %w", s, id, n, ErrInvalidConf)
		}
		if tag := buf[actTag]; tag < 0 || tag > fsa.MaxTag {
			return fmt.Errorf("action %d: %w", id, fsa.LimitError("tag", int(tag), fsa.MaxTag))
		}
		if buf[actLeft] < 0 || buf[actRight] < 0 {
			return fmt.Errorf("action %d has negative trim: %w", id, ErrInvalidConf)
		}
		for _, fn := range buf[actCalls:n] {
			if e.initial(fn) == fsa.NoState {
				return fmt.Errorf("action %d calls undefined function %d: %w", id, fn, ErrInvalidConf)
			}
		}
	}
	return nil
}

func (e *Engine) initial(fn int32) int32 {
	if fn < 0 || int(fn) >= len(e.fnInitial) {
		return fsa.NoState
	}
	return e.fnInitial[fn]
}

// Process tokenizes in from the root function. It returns the number of
// tokens, copying them into out only if they all fit.
func (e *Engine) Process(in []int32, out []Token) (int, error) {
	return e.ProcessFn(0, in, out)
}

// ProcessFn is Process starting from function fn.
func (e *Engine) ProcessFn(fn int32, in []int32, out []Token) (int, error) {
	if e == nil {
		return -1, fsa.ErrNotConfigured
	}
	e.text = textInput{
		chain:      in,
		ignoreCase: e.conf.IgnoreCase,
		substitute: e.conf.Substitute,
	}
	n, err := e.ProcessInput(fn, &e.text, out)
	e.text.chain = nil
	return n, err
}

// ProcessInput is ProcessFn for any Input.
func (e *Engine) ProcessInput(fn int32, in Input, out []Token) (int, error) {
	if e == nil || e.conf.Dfa == nil {
		return -1, fsa.ErrNotConfigured
	}
	n := in.Len()
	if n > e.conf.MaxInputLength {
		return -1, fsa.LimitError("input length", n, e.conf.MaxInputLength)
	}
	initial := e.initial(fn)
	if initial == fsa.NoState {
		return -1, fmt.Errorf("function %d: %w", fn, fsa.ErrNotFound)
	}
	if n == 0 {
		return 0, nil
	}

	e.toks = e.toks[:0]
	e.lex(in, initial, 0, n, 0, false)
	if len(e.toks) <= len(out) {
		copy(out, e.toks)
	}
	return len(e.toks), nil
}

// lex tokenizes the span [begin, end) from state initial. In once mode it
// returns after the first match. It returns the end of the last token
// emitted, or begin-1.
func (e *Engine) lex(in Input, initial int32, begin, end, depth int, once bool) int {
	last := begin - 1
	for from := begin - 1; from < end; from++ {
		to, final := e.match(in, initial, from, begin, end)
		if final == fsa.NoState {
			continue
		}

		act := e.acts[depth]
		n := e.conf.Actions.Get(e.conf.Moore.Ow(final), act)
		right := int(act[actRight])
		tokFrom := max(from+int(act[actLeft]), begin)
		tokTo := min(to-right, end-1)

		if tag := act[actTag]; tag != 0 && tokFrom <= tokTo {
			e.toks = append(e.toks, Token{Tag: tag, From: tokFrom, To: tokTo})
			last = tokTo
		}

		if depth < e.conf.MaxDepth && tokFrom <= tokTo {
			start := tokFrom
			for i, fn := range act[actCalls:n] {
				if start > tokTo {
					break
				}
				// Only the first function and calls to the root run over
				// the whole remaining span.
				fnLast := e.lex(in, e.fnInitial[fn], start, tokTo+1, depth+1, i > 0 && fn != 0)
				if fnLast >= start {
					start = fnLast + 1
					last = max(last, fnLast)
				}
			}
		}

		if once {
			return last
		}
		if next := to - right; next > from {
			from = next
		}
	}
	return last
}

// match runs the automaton from position from and returns the last
// position and state of the longest match, or NoState. Position begin-1
// stands for the left anchor and end for the right anchor.
func (e *Engine) match(in Input, state int32, from, begin, end int) (int, int32) {
	limit := end
	if e.conf.MaxTokenLength > 0 {
		limit = min(limit, from+e.conf.MaxTokenLength-1)
	}
	matchTo, matchState := from, fsa.NoState
	for p := from; p <= limit; p++ {
		switch p {
		case begin - 1:
			state = e.conf.Dfa.Dest(state, fsa.LeftAnchor)
		case end:
			state = e.conf.Dfa.Dest(state, fsa.RightAnchor)
		default:
			state = in.Feed(e.conf.Dfa, state, p)
		}
		if state == fsa.NoState {
			break
		}
		if e.conf.Dfa.IsFinal(state) {
			matchTo, matchState = p, state
		}
	}
	return matchTo, matchState
}

// textInput feeds one symbol per position.
type textInput struct {
	chain      []int32
	ignoreCase bool
	substitute int32
}

func (t *textInput) Len() int {
	return len(t.chain)
}

func (t *textInput) Feed(dfa fsa.RSDfa, state int32, i int) int32 {
	c := t.chain[i]
	switch {
	case fsa.IsControl(c):
		c = t.substitute
	case t.ignoreCase:
		c = fsa.Fold(c)
	}
	return Step(dfa, state, c)
}
