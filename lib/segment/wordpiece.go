// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package segment

import (
	"log/slog"

	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/lexer"
)

// WordPieceConf configures a WordPiece engine. The lexer tags words with
// WordTag and calls functions that tag the pieces of the word with their
// token ids. Other top level tags are token ids too.
type WordPieceConf struct {
	Lexer   *lexer.Engine
	WordTag int32
}

// WordPiece segments with a lexer: a word is emitted as its pieces when
// they cover it exactly, and as a single unknown token otherwise.
type WordPiece struct {
	conf WordPieceConf
	lex  []lexer.Token
	out  tokens
}

var _ Segmenter = (*WordPiece)(nil)

func NewWordPiece(conf WordPieceConf) (*WordPiece, error) {
	if conf.Lexer == nil {
		return nil, fsa.ErrNotConfigured
	}
	if conf.WordTag <= 0 || conf.WordTag > fsa.MaxTag {
		return nil, fsa.LimitError("word tag", int(conf.WordTag), fsa.MaxTag)
	}
	slog.Debug("Configured word piece segmenter", "wordTag", conf.WordTag)
	return &WordPiece{conf: conf, lex: make([]lexer.Token, 64)}, nil
}

func (w *WordPiece) Process(in []int32, out []Token, unk int32) (int, error) {
	if w == nil {
		return -1, fsa.ErrNotConfigured
	}
	n, err := w.conf.Lexer.Process(in, w.lex[:cap(w.lex)])
	if err != nil {
		return -1, err
	}
	if n > cap(w.lex) {
		w.lex = make([]lexer.Token, n)
		if n, err = w.conf.Lexer.Process(in, w.lex); err != nil {
			return -1, err
		}
	}
	toks := w.lex[:n]

	w.out.reset()
	next := 0 // first position not yet covered by output
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.From < next {
			continue
		}
		if t.From > next {
			w.out.addUnk(unk, next, t.From-1)
		}
		next = t.To + 1

		if t.Tag != w.conf.WordTag {
			w.out.add(t.Tag, t.From, t.To)
			continue
		}

		j := i + 1
		for j < len(toks) && toks[j].Tag != w.conf.WordTag && toks[j].From >= t.From && toks[j].To <= t.To {
			j++
		}
		pieces := toks[i+1 : j]
		i = j - 1
		if !tiles(pieces, t.From, t.To) {
			w.out.addUnk(unk, t.From, t.To)
			continue
		}
		for _, p := range pieces {
			w.out.add(p.Tag, p.From, p.To)
		}
	}
	if next < len(in) {
		w.out.addUnk(unk, next, len(in)-1)
	}
	return w.out.copyOut(out), nil
}

// tiles reports whether pieces cover [from, to] contiguously.
func tiles(pieces []lexer.Token, from, to int) bool {
	if len(pieces) == 0 {
		return false
	}
	for _, p := range pieces {
		if p.From != from {
			return false
		}
		from = p.To + 1
	}
	return from == to+1
}
