// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dict looks up words in compiled dictionaries. A word is
// normalized (case, character map, transform, direction), mapped to a dense
// info id either through a minimal perfect hash or through the state
// weights of an acceptor, and the info id selects a variable length info
// record.
package dict

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/mph"
)

// Conf configures an Interpreter. Dfa is always required. If Mealy is set
// words are hashed, and IDs (when set) maps hash values to info ids.
// Otherwise Moore supplies the info id of every final state.
type Conf struct {
	IgnoreCase  bool
	CharMap     fsa.MultiMap
	Transform   Transform
	RightToLeft bool

	Dfa   fsa.RSDfa
	Mealy fsa.Mealy
	IDs   fsa.Array
	Moore fsa.Moore

	Info fsa.MultiMap

	// MaxWordLen bounds the input word length; zero means fsa.MaxWordLen.
	MaxWordLen int

	// CacheSize enables a cache of that many words to info ids.
	CacheSize int
}

// Interpreter is a configured dictionary. It keeps scratch buffers and
// must not be used concurrently; several interpreters may share the same
// views.
type Interpreter struct {
	conf    Conf
	hash    *mph.MPH
	cache   *lru.TwoQueueCache[string, int32]
	maxLen  int
	buf     []int32
	tmp     []int32
	charBuf []int32
}

func New(conf Conf) (*Interpreter, error) {
	if conf.Dfa == nil || (conf.Mealy == nil && conf.Moore == nil) {
		return nil, fmt.Errorf("dictionary needs an automaton and a reaction: %w", fsa.ErrNotConfigured)
	}
	d := &Interpreter{
		conf:   conf,
		maxLen: conf.MaxWordLen,
	}
	if d.maxLen <= 0 {
		d.maxLen = fsa.MaxWordLen
	}
	d.buf = make([]int32, 0, d.maxLen)
	d.tmp = make([]int32, 0, d.maxLen)

	mode := "state weights"
	if conf.Mealy != nil {
		h, err := mph.New(conf.Dfa, conf.Mealy, nil)
		if err != nil {
			return nil, err
		}
		d.hash = h
		mode = "perfect hash"
	}
	if conf.CharMap != nil {
		d.charBuf = make([]int32, conf.CharMap.MaxCount())
	}
	if conf.CacheSize > 0 {
		c, err := lru.New2Q[string, int32](conf.CacheSize)
		if err != nil {
			return nil, err
		}
		d.cache = c
	}

	slog.Debug("Configured dictionary", "mode", mode, "ignoreCase", conf.IgnoreCase, "charMap", conf.CharMap != nil, "transform", conf.Transform != nil, "rightToLeft", conf.RightToLeft, "info", conf.Info != nil, "cache", conf.CacheSize)
	return d, nil
}

func (d *Interpreter) ready() bool {
	return d != nil && d.conf.Dfa != nil
}

// Normalize appends the normalized form of word to dst: case folded,
// character mapped, transformed and reversed as configured.
func (d *Interpreter) Normalize(dst, word []int32) ([]int32, error) {
	if !d.ready() {
		return dst, fsa.ErrNotConfigured
	}
	if len(word) > d.maxLen {
		return dst, fsa.LimitError("word length", len(word), d.maxLen)
	}
	return append(dst, d.normalize(word)...), nil
}

// normalize returns the normalized word in one of the scratch buffers.
func (d *Interpreter) normalize(word []int32) []int32 {
	buf := d.buf[:0]
	for _, c := range word {
		if d.conf.IgnoreCase {
			c = fsa.Fold(c)
		}
		if d.conf.CharMap != nil {
			if n := d.conf.CharMap.Get(c, d.charBuf); n >= 0 {
				buf = append(buf, d.charBuf[:n]...)
				continue
			}
		}
		buf = append(buf, c)
	}
	d.buf = buf

	if d.conf.Transform != nil {
		if res, ok := d.conf.Transform.Transform(d.tmp[:0], buf); ok {
			d.tmp = d.buf
			d.buf = res
			buf = res
		}
	}

	if d.conf.RightToLeft {
		slices.Reverse(buf)
	}
	return buf
}

// lookup returns the info id of a normalized word, or -1.
func (d *Interpreter) lookup(word []int32) int32 {
	if d.hash != nil {
		id := d.hash.ID(word)
		if id < 0 || d.conf.IDs == nil {
			return id
		}
		return d.conf.IDs.At(id)
	}
	state := d.conf.Dfa.Initial()
	for _, c := range word {
		state = d.conf.Dfa.Dest(state, c)
		if state == fsa.NoState {
			return -1
		}
	}
	if !d.conf.Dfa.IsFinal(state) {
		return -1
	}
	return d.conf.Moore.Ow(state)
}

// WordToInfoID returns the info id of word.
func (d *Interpreter) WordToInfoID(word []int32) (int32, error) {
	if !d.ready() {
		return -1, fsa.ErrNotConfigured
	}
	if len(word) > d.maxLen {
		return -1, fsa.LimitError("word length", len(word), d.maxLen)
	}

	var key string
	if d.cache != nil {
		key = cacheKey(word)
		if id, ok := d.cache.Get(key); ok {
			return found(id)
		}
	}
	id := d.lookup(d.normalize(word))
	if d.cache != nil {
		d.cache.Add(key, id)
	}
	return found(id)
}

func found(id int32) (int32, error) {
	if id < 0 {
		return -1, fsa.ErrNotFound
	}
	return id, nil
}

// WordToInfo returns the size of the info record of word, copying it into
// out if it fits.
func (d *Interpreter) WordToInfo(word []int32, out []int32) (int, error) {
	if !d.ready() || d.conf.Info == nil {
		return -1, fsa.ErrNotConfigured
	}
	id, err := d.WordToInfoID(word)
	if err != nil {
		return -1, err
	}
	return d.InfoIDToInfo(id, out)
}

// InfoIDToInfo returns the size of the info record with the given id,
// copying it into out if it fits.
func (d *Interpreter) InfoIDToInfo(id int32, out []int32) (int, error) {
	if !d.ready() || d.conf.Info == nil {
		return -1, fsa.ErrNotConfigured
	}
	n := d.conf.Info.Get(id, out)
	if n < 0 {
		return -1, fsa.ErrNotFound
	}
	return n, nil
}

// MaxInfoSize is the size of the largest info record.
func (d *Interpreter) MaxInfoSize() (int, error) {
	if !d.ready() || d.conf.Info == nil {
		return -1, fsa.ErrNotConfigured
	}
	return d.conf.Info.MaxCount(), nil
}

func cacheKey(word []int32) string {
	buf := make([]byte, 4*len(word))
	for i, c := range word {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(c))
	}
	return string(buf)
}
