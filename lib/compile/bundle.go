// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package compile

import (
	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/dump"
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/packed"
)

// A Bundle collects compiled components into one dump and records which
// section feeds which component.
type Bundle struct {
	w     dump.Writer
	vocab config.VocabSections
	lexer config.LexerSections
}

func NewBundle() *Bundle {
	m := config.New("", "")
	return &Bundle{
		vocab: m.Vocab,
		lexer: m.Lexer,
	}
}

// AddDictionary appends the sections of a compiled vocabulary.
func (b *Bundle) AddDictionary(d *Dictionary) {
	secs := d.Sections()
	b.vocab = config.VocabSections{
		Automaton: b.w.Add(secs[SectionAutomaton]),
		Reverse:   b.w.Add(secs[SectionReverse]),
		IDs:       b.w.Add(secs[SectionIDs]),
		Info:      b.w.Add(secs[SectionInfo]),
		Tokens:    b.w.Add(secs[SectionTokens]),
		CharMap:   b.vocab.CharMap,
	}
}

// AddCharMap appends a character map for the dictionary lookups.
func (b *Bundle) AddCharMap(m *fsa.Map) {
	b.vocab.CharMap = b.w.Add(packed.EncodeMultiMap(m))
}

// AddLexicon appends the sections of a compiled rule set.
func (b *Bundle) AddLexicon(l *Lexicon) {
	secs := l.Sections()
	b.lexer = config.LexerSections{
		Rules:     b.w.Add(secs[SectionRules]),
		Actions:   b.w.Add(secs[SectionActions]),
		Functions: b.w.Add(secs[SectionFunctions]),
	}
}

// Bytes returns the serialized dump.
func (b *Bundle) Bytes() []byte {
	return b.w.Bytes()
}

// Manifest returns a manifest for the bundle with default settings and
// the section indexes filled in.
func (b *Bundle) Manifest(name, dumpPath string) config.Manifest {
	m := config.New(name, dumpPath)
	m.Vocab = b.vocab
	m.Lexer = b.lexer
	return m
}
