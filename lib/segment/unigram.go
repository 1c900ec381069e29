// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package segment

import (
	"log/slog"
	"math"
	"slices"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// DefaultUnkScore is the score of an unknown symbol.
const DefaultUnkScore = -100

// UnigramConf configures a Unigram engine.
type UnigramConf struct {
	Vocab *Vocab
	// UnkScore is the score of a symbol no single symbol entry covers.
	// Zero means DefaultUnkScore.
	UnkScore       float32
	MaxInputLength int
	MaxTokenLength int
}

// Unigram picks the segmentation with the highest total score. On equal
// scores the path discovered first is kept. Adjacent unknown symbols are
// reported as one token.
type Unigram struct {
	conf UnigramConf
	buf  []int32
	best []float64 // best score of a segmentation of in[:i]
	back []step    // last token of that segmentation
	path []pathToken
	out  tokens
}

type pathToken struct {
	Token
	unk bool
}

type step struct {
	start int
	id    int32
	unk   bool
}

var _ Segmenter = (*Unigram)(nil)

func NewUnigram(conf UnigramConf) (*Unigram, error) {
	if conf.Vocab == nil {
		return nil, fsa.ErrNotConfigured
	}
	if conf.UnkScore == 0 {
		conf.UnkScore = DefaultUnkScore
	}
	slog.Debug("Configured unigram segmenter", "unkScore", conf.UnkScore, "maxTokenLength", conf.MaxTokenLength)
	return &Unigram{conf: conf, buf: conf.Vocab.infoBuf()}, nil
}

func (u *Unigram) Process(in []int32, out []Token, unk int32) (int, error) {
	if u == nil {
		return -1, fsa.ErrNotConfigured
	}
	if err := checkInput(in, u.conf.MaxInputLength); err != nil {
		return -1, err
	}
	n := len(in)
	u.best = slices.Grow(u.best[:0], n+1)[:n+1]
	u.back = slices.Grow(u.back[:0], n+1)[:n+1]
	u.best[0] = 0
	for i := 1; i <= n; i++ {
		u.best[i] = math.Inf(-1)
	}

	for start := 0; start < n; start++ {
		base := u.best[start]
		single := false
		u.conf.Vocab.walk(in, start, u.conf.MaxTokenLength, u.buf, func(end int, tok int32, score float32) {
			if end == start {
				single = true
			}
			if c := base + float64(score); c > u.best[end+1] {
				u.best[end+1] = c
				u.back[end+1] = step{start: start, id: tok}
			}
		})
		if single {
			continue
		}
		if c := base + float64(u.conf.UnkScore); c > u.best[start+1] {
			u.best[start+1] = c
			u.back[start+1] = step{start: start, id: unk, unk: true}
		}
	}

	u.path = u.path[:0]
	for i := n; i > 0; i = u.back[i].start {
		u.path = append(u.path, pathToken{
			Token: Token{ID: u.back[i].id, Start: u.back[i].start, End: i - 1},
			unk:   u.back[i].unk,
		})
	}

	u.out.reset()
	for i := len(u.path) - 1; i >= 0; i-- {
		if t := u.path[i]; t.unk {
			u.out.addUnk(t.ID, t.Start, t.End)
		} else {
			u.out.add(t.ID, t.Start, t.End)
		}
	}
	return u.out.copyOut(out), nil
}
