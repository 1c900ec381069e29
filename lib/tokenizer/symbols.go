// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package tokenizer

import (
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/segment"
)

// symbols is a text decoded to code points, with the byte offset of every
// code point. Invalid UTF-8 decodes to U+FFFD, one symbol per bad byte.
type symbols struct {
	syms []int32
	offs []int // len(syms)+1 entries, the last one is the text length
}

// decode fills s from text. With lower set, symbols are case folded; with
// mark set, spaces become word marks and a word mark is prepended.
func (s *symbols) decode(text string, lower, mark bool) {
	s.syms = s.syms[:0]
	s.offs = s.offs[:0]
	if mark && text != "" {
		s.syms = append(s.syms, segment.WordMark)
		s.offs = append(s.offs, 0)
	}
	for i, r := range text {
		if lower {
			r = fsa.Fold(r)
		}
		if mark && r == ' ' {
			r = segment.WordMark
		}
		s.syms = append(s.syms, r)
		s.offs = append(s.offs, i)
	}
	s.offs = append(s.offs, len(text))
}

// span returns the byte range [start, end) of the symbols from through to
// inclusive.
func (s *symbols) span(from, to int) (int, int) {
	return s.offs[from], s.offs[to+1]
}
