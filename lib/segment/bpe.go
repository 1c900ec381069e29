// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package segment

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// WordMark starts every word in inputs prepared for sub-word vocabularies.
const WordMark = 0x2581

// BPEConf configures a BPE engine.
type BPEConf struct {
	Vocab *Vocab
	// WholeWords prefers a vocabulary entry spanning a complete marked
	// word over any competing segmentation of it.
	WholeWords     bool
	MaxInputLength int
	MaxTokenLength int
}

// BPE segments greedily by merge rank: candidate tokens are accepted in
// order of decreasing score unless they overlap an accepted one.
type BPE struct {
	conf BPEConf
	buf  []int32
	arcs []arc
	win  []int // per start position, end of the accepted arc or -1
	ids  []int32
	used []bool
	out  tokens
}

type arc struct {
	start, end int
	id         int32
	rank       float32
}

var _ Segmenter = (*BPE)(nil)

func NewBPE(conf BPEConf) (*BPE, error) {
	if conf.Vocab == nil {
		return nil, fsa.ErrNotConfigured
	}
	slog.Debug("Configured BPE segmenter", "wholeWords", conf.WholeWords, "maxTokenLength", conf.MaxTokenLength)
	return &BPE{conf: conf, buf: conf.Vocab.infoBuf()}, nil
}

func (b *BPE) Process(in []int32, out []Token, unk int32) (int, error) {
	if b == nil {
		return -1, fsa.ErrNotConfigured
	}
	if err := checkInput(in, b.conf.MaxInputLength); err != nil {
		return -1, err
	}
	b.collect(in)

	slices.SortFunc(b.arcs, func(x, y arc) int {
		if c := cmp.Compare(y.rank, x.rank); c != 0 {
			return c
		}
		if c := cmp.Compare(x.id, y.id); c != 0 {
			return c
		}
		return cmp.Compare(x.start, y.start)
	})

	b.win = resize(b.win, len(in))
	b.ids = resize(b.ids, len(in))
	b.used = slices.Grow(b.used[:0], len(in))[:len(in)]
	clear(b.used)
	taken := 0
	for _, a := range b.arcs {
		if taken == len(in) {
			break
		}
		if slices.Contains(b.used[a.start:a.end+1], true) {
			continue
		}
		for i := a.start; i <= a.end; i++ {
			b.used[i] = true
		}
		taken += a.end - a.start + 1
		b.win[a.start] = a.end
		b.ids[a.start] = a.id
	}

	b.out.reset()
	for i := 0; i < len(in); {
		if end := b.win[i]; end >= 0 {
			b.out.add(b.ids[i], i, end)
			i = end + 1
			continue
		}
		b.out.addUnk(unk, i, i)
		i++
	}
	return b.out.copyOut(out), nil
}

// collect gathers the candidate arcs of every start position.
func (b *BPE) collect(in []int32) {
	b.arcs = b.arcs[:0]
	for start := 0; start < len(in); start++ {
		first := len(b.arcs)
		b.conf.Vocab.walk(in, start, b.conf.MaxTokenLength, b.buf, func(end int, tok int32, score float32) {
			b.arcs = append(b.arcs, arc{start: start, end: end, id: tok, rank: score})
		})
		if !b.conf.WholeWords || in[start] != WordMark {
			continue
		}

		wordEnd := start + 1
		for wordEnd < len(in) && in[wordEnd] != WordMark {
			wordEnd++
		}
		wordEnd--
		i := slices.IndexFunc(b.arcs[first:], func(a arc) bool { return a.end == wordEnd })
		if i < 0 {
			continue
		}
		whole := b.arcs[first+i]
		// Drop every other arc touching the word, including those from
		// earlier start positions that run into it.
		b.arcs = slices.DeleteFunc(b.arcs, func(a arc) bool { return a.end >= start })
		b.arcs = append(b.arcs, whole)
		start = wordEnd
	}
}

func resize[T int | int32](s []T, n int) []T {
	if cap(s) < n {
		s = make([]T, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = -1
	}
	return s
}
