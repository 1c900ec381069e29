// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package compile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/packed"
)

var ErrEmptyWord = errors.New("empty word")

// Vocabulary collects words and their info records.
type Vocabulary struct {
	words map[string]vocabEntry
}

type vocabEntry struct {
	chain []int32
	info  []int32
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{words: make(map[string]vocabEntry)}
}

// Add registers chain with its info record, replacing an earlier record
// for the same chain.
func (v *Vocabulary) Add(chain []int32, info ...int32) error {
	if len(chain) == 0 {
		return ErrEmptyWord
	}
	if len(chain) > fsa.MaxWordLen {
		return fsa.LimitError("word length", len(chain), fsa.MaxWordLen)
	}
	for _, c := range chain {
		if c < 0 || fsa.IsControl(c) {
			return fmt.Errorf("word contains reserved symbol %#x", c)
		}
	}
	v.words[chainKey(chain)] = vocabEntry{
		chain: slices.Clone(chain),
		info:  slices.Clone(info),
	}
	return nil
}

// AddString is Add for a string word.
func (v *Vocabulary) AddString(word string, info ...int32) error {
	return v.Add([]int32(word), info...)
}

func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Dictionary is a compiled vocabulary.
type Dictionary struct {
	// Automaton is a trie over the words. Its transition weights form a
	// minimal perfect hash numbering the words in lexicographic order, and
	// its final states carry the info id of their word.
	Automaton *fsa.Automaton
	// Reverse maps hash values back to words.
	Reverse *fsa.Reverse
	// IDs maps a hash value to an info id.
	IDs fsa.Slice
	// Info holds the info records. Identical records share one info id.
	Info *fsa.Map
}

// Build compiles the vocabulary.
func (v *Vocabulary) Build() *Dictionary {
	entries := make([]vocabEntry, 0, len(v.words))
	for _, e := range v.words {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b vocabEntry) int {
		return slices.Compare(a.chain, b.chain)
	})

	d := &Dictionary{
		Automaton: fsa.NewAutomaton(),
		IDs:       make(fsa.Slice, len(entries)),
		Info:      fsa.NewMap(),
	}
	a := d.Automaton

	infoIDs := make(map[string]int32)
	for id, e := range entries {
		key := chainKey(e.info)
		infoID, ok := infoIDs[key]
		if !ok {
			infoID = int32(len(infoIDs))
			infoIDs[key] = infoID
			d.Info.Set(infoID, e.info...)
		}
		d.IDs[id] = infoID

		state := a.Initial()
		for _, c := range e.chain {
			next := a.Dest(state, c)
			if next == fsa.NoState {
				next = a.AddState()
				a.AddTransition(state, c, next)
			}
			state = next
		}
		a.SetFinal(state, true)
		a.SetOws(state, infoID)
	}

	// Children are always created after their parent, so walking the
	// states backwards sees every count before it is needed.
	counts := make([]int32, a.StateCount())
	for s := int32(a.StateCount() - 1); s >= 0; s-- {
		if a.IsFinal(s) {
			counts[s] = 1
		}
		for _, t := range a.Transitions(s) {
			counts[s] += counts[t.Dest]
		}
	}

	a.SetReactions(true, true)
	d.Reverse = fsa.NewReverse(a.StateCount(), a.Initial())
	for s := int32(0); s < int32(a.StateCount()); s++ {
		var acc int32
		if a.IsFinal(s) {
			acc = 1
			d.Reverse.SetFinal(s)
		}
		for _, t := range slices.Clone(a.Transitions(s)) {
			a.AddTransitionOw(s, t.Iw, t.Dest, acc)
			d.Reverse.AddStep(s, acc, t.Iw, t.Dest)
			acc += counts[t.Dest]
		}
	}
	return d
}

// TokenIndex maps the token ids stored as the second info value of each
// word back to the word's hash value. Gaps are -1.
func (d *Dictionary) TokenIndex() fsa.Slice {
	var idx fsa.Slice
	for h, infoID := range d.IDs {
		info, _ := d.Info.Values(infoID)
		if len(info) < 2 || info[1] < 0 {
			continue
		}
		for int(info[1]) >= len(idx) {
			idx = append(idx, -1)
		}
		idx[info[1]] = int32(h)
	}
	return idx
}

// Section order used by Sections.
const (
	SectionAutomaton = iota
	SectionReverse
	SectionIDs
	SectionInfo
	SectionTokens
)

// Sections encodes the dictionary as blobs, in the order given by the
// Section constants.
func (d *Dictionary) Sections() [][]byte {
	return [][]byte{
		SectionAutomaton: packed.EncodeAutomaton(d.Automaton),
		SectionReverse:   packed.EncodeReverse(d.Reverse),
		SectionIDs:       packed.EncodeArray(d.IDs),
		SectionInfo:      packed.EncodeMultiMap(d.Info),
		SectionTokens:    packed.EncodeArray(d.TokenIndex()),
	}
}

func chainKey(chain []int32) string {
	buf := make([]byte, 0, 4*len(chain))
	for _, c := range chain {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c))
	}
	return string(buf)
}
