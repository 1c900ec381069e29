// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package segment splits symbol chains into sub-word tokens. Every engine
// produces tokens that tile the input exactly; spans no vocabulary entry
// covers become a single unknown token per run.
package segment

import (
	"math"

	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/mph"
)

// A Token is a vocabulary entry covering in[Start:End+1].
type Token struct {
	ID    int32
	Start int
	End   int
}

// A Segmenter splits an input into tokens. Process returns the number of
// tokens, copying them into out only if they all fit. Spans that no
// vocabulary entry covers get the id unk.
type Segmenter interface {
	Process(in []int32, out []Token, unk int32) (int, error)
}

// ScoreBits packs a score into an info record value.
func ScoreBits(score float32) int32 {
	return int32(math.Float32bits(score))
}

// Score unpacks a score from an info record value.
func Score(bits int32) float32 {
	return math.Float32frombits(uint32(bits))
}

// Vocab is a segmentation vocabulary: a minimal perfect hash over the
// token strings, an optional hash value to info id array and info records
// of the form (score bits[, token id]). Without a token id in its record a
// token's id is its info id.
type Vocab struct {
	hash *mph.MPH
	ids  fsa.Array
	info fsa.MultiMap
}

func NewVocab(hash *mph.MPH, ids fsa.Array, info fsa.MultiMap) (*Vocab, error) {
	if hash == nil || info == nil {
		return nil, fsa.ErrNotConfigured
	}
	return &Vocab{hash: hash, ids: ids, info: info}, nil
}

// token returns the token id and score of a hash value. buf must hold
// MaxCount values of the info map.
func (v *Vocab) token(id int32, buf []int32) (int32, float32) {
	if v.ids != nil {
		id = v.ids.At(id)
	}
	switch n := v.info.Get(id, buf); {
	case n >= 2:
		return buf[1], Score(buf[0])
	case n == 1:
		return id, Score(buf[0])
	default:
		return id, 0
	}
}

func (v *Vocab) infoBuf() []int32 {
	return make([]int32, max(v.info.MaxCount(), 2))
}

// walk calls fn for every vocabulary entry starting at in[start], in order
// of increasing end.
func (v *Vocab) walk(in []int32, start, maxLen int, buf []int32, fn func(end int, tok int32, score float32)) {
	state := v.hash.Initial()
	var id int32
	limit := len(in)
	if maxLen > 0 {
		limit = min(limit, start+maxLen)
	}
	for end := start; end < limit; end++ {
		dest, ow := v.hash.Next(state, in[end])
		if dest == fsa.NoState {
			return
		}
		if ow > 0 {
			id += ow
		}
		state = dest
		if v.hash.IsFinal(state) {
			tok, score := v.token(id, buf)
			fn(end, tok, score)
		}
	}
}

// tokens accumulates output, merging adjacent unknown spans.
type tokens struct {
	toks    []Token
	lastUnk bool
}

func (t *tokens) reset() {
	t.toks = t.toks[:0]
	t.lastUnk = false
}

func (t *tokens) add(id int32, start, end int) {
	t.toks = append(t.toks, Token{ID: id, Start: start, End: end})
	t.lastUnk = false
}

func (t *tokens) addUnk(unk int32, start, end int) {
	if n := len(t.toks); t.lastUnk && t.toks[n-1].End == start-1 {
		t.toks[n-1].End = end
		return
	}
	t.toks = append(t.toks, Token{ID: unk, Start: start, End: end})
	t.lastUnk = true
}

// copyOut implements the two phase output contract.
func (t *tokens) copyOut(out []Token) int {
	if len(t.toks) <= len(out) {
		copy(out, t.toks)
	}
	return len(t.toks)
}

func checkInput(in []int32, limit int) error {
	if limit <= 0 {
		limit = fsa.MaxInputLen
	}
	if len(in) > limit {
		return fsa.LimitError("input length", len(in), limit)
	}
	return nil
}
