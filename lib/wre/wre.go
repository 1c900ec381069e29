// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package wre runs word rule expressions: lexer rules over sequences of
// words, where each word position is fed to the automaton as a tuple of
// its text class, its tag and its dictionary class.
package wre

import (
	"github.com/syncthing/fsmtok/lib/digitizer"
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/lexer"
)

// A Word is one input position.
type Word struct {
	Text []int32
	Tag  int32
}

// Conf configures an Engine. The tuple fed for each word holds, in order,
// the text class from Text, the word tag if UseTags is set and the
// dictionary class from Dict. At least one of them must be configured.
type Conf struct {
	Lexer   lexer.Conf
	Text    *digitizer.Automaton
	UseTags bool
	Dict    *digitizer.Dict
}

// Engine is a configured rule engine. It must not be used concurrently.
type Engine struct {
	lex *lexer.Engine
	in  tupleInput
}

func New(conf Conf) (*Engine, error) {
	if conf.Text == nil && conf.Dict == nil && !conf.UseTags {
		return nil, fsa.ErrNotConfigured
	}
	lex, err := lexer.New(conf.Lexer)
	if err != nil {
		return nil, err
	}
	return &Engine{
		lex: lex,
		in: tupleInput{
			text:    conf.Text,
			useTags: conf.UseTags,
			dict:    conf.Dict,
		},
	}, nil
}

// Process matches the root rules over words. Token spans are word
// indexes. It returns the number of tokens, copying them into out only if
// they all fit.
func (e *Engine) Process(words []Word, out []lexer.Token) (int, error) {
	return e.ProcessFn(0, words, out)
}

// ProcessFn is Process starting from function fn.
func (e *Engine) ProcessFn(fn int32, words []Word, out []lexer.Token) (int, error) {
	if e == nil {
		return -1, fsa.ErrNotConfigured
	}
	e.in.prepare(words)
	return e.lex.ProcessInput(fn, &e.in, out)
}

// tupleInput holds the symbols of every word, computed once per call.
type tupleInput struct {
	text    *digitizer.Automaton
	useTags bool
	dict    *digitizer.Dict
	syms    []int32
	width   int
}

func (t *tupleInput) prepare(words []Word) {
	t.width = 0
	if t.text != nil {
		t.width++
	}
	if t.useTags {
		t.width++
	}
	if t.dict != nil {
		t.width++
	}
	t.syms = t.syms[:0]
	for _, w := range words {
		if t.text != nil {
			t.syms = append(t.syms, t.text.Process(w.Text))
		}
		if t.useTags {
			t.syms = append(t.syms, w.Tag)
		}
		if t.dict != nil {
			t.syms = append(t.syms, t.dict.Process(w.Text))
		}
	}
}

func (t *tupleInput) Len() int {
	return len(t.syms) / t.width
}

func (t *tupleInput) Feed(dfa fsa.RSDfa, state int32, i int) int32 {
	for _, c := range t.syms[i*t.width : (i+1)*t.width] {
		state = lexer.Step(dfa, state, c)
		if state == fsa.NoState {
			break
		}
	}
	return state
}
