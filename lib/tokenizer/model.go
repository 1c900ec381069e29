// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tokenizer exposes compiled models to callers: text in, words,
// sentences and token ids out, with byte offsets into the original text.
//
// A Model is safe for concurrent use. The interpreters underneath are
// not; the model keeps a pool of them, all sharing the same dump.
package tokenizer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/syncthing/fsmtok/internal/slogutil"
	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/dict"
	"github.com/syncthing/fsmtok/lib/dump"
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/lexer"
	"github.com/syncthing/fsmtok/lib/mph"
	"github.com/syncthing/fsmtok/lib/packed"
	"github.com/syncthing/fsmtok/lib/segment"
)

type Model struct {
	man         config.Manifest
	file        *dump.File // nil when the image is owned by the caller
	image       *dump.Image
	fingerprint uint64

	// vocabulary
	words  *packed.Automaton
	rev    fsa.MphReverse
	ids    fsa.Array
	info   *packed.MultiMap
	tokens fsa.Array
	chars  *packed.MultiMap
	hash   *mph.MPH
	vocab  *segment.Vocab

	// rules
	rules   *packed.Automaton
	actions *packed.MultiMap
	fns     fsa.Array

	sessions sync.Pool
}

// Load opens the dump named by the manifest and builds a model over it.
// The model owns the dump and releases it on Close.
func Load(man config.Manifest) (*Model, error) {
	f, err := dump.Open(man.DumpPath())
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", man.Name, err)
	}
	m, err := New(man, f.Image())
	if err != nil {
		f.Close()
		return nil, err
	}
	m.file = f
	return m, nil
}

// New builds a model over an image owned by the caller, which must keep
// it alive for as long as the model is used.
func New(man config.Manifest, im *dump.Image) (*Model, error) {
	m := &Model{
		man:         man,
		image:       im,
		fingerprint: im.Fingerprint(),
	}
	if man.Vocab.Enabled() {
		if err := m.openVocab(); err != nil {
			return nil, fmt.Errorf("model %s: vocabulary: %w", man.Name, err)
		}
	}
	if man.Lexer.Enabled() {
		if err := m.openRules(); err != nil {
			return nil, fmt.Errorf("model %s: rules: %w", man.Name, err)
		}
	}

	// Building the first session validates the configuration of every
	// interpreter, so later sessions cannot fail.
	s, err := m.newSession()
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", man.Name, err)
	}
	m.sessions.Put(s)

	slog.Info("Loaded model", slogutil.Model(man.Name), slog.String("engine", man.Engine.String()), slog.Int("sections", im.Sections()), slog.String("fingerprint", fmt.Sprintf("%016x", m.fingerprint)))
	return m, nil
}

func (m *Model) section(i int) ([]byte, error) {
	return m.image.Section(i)
}

func (m *Model) openVocab() error {
	v := m.man.Vocab

	blob, err := m.section(v.Automaton)
	if err != nil {
		return err
	}
	if m.words, err = packed.NewMealy(blob); err != nil {
		return err
	}
	if blob, err = m.section(v.Info); err != nil {
		return err
	}
	if m.info, err = packed.NewMultiMap(blob); err != nil {
		return err
	}
	if v.Reverse >= 0 {
		if blob, err = m.section(v.Reverse); err != nil {
			return err
		}
		rev, err := packed.NewReverse(blob)
		if err != nil {
			return err
		}
		m.rev = rev
	}
	if m.ids, err = m.optionalArray(v.IDs); err != nil {
		return err
	}
	if m.tokens, err = m.optionalArray(v.Tokens); err != nil {
		return err
	}
	if v.CharMap >= 0 {
		if blob, err = m.section(v.CharMap); err != nil {
			return err
		}
		if m.chars, err = packed.NewMultiMap(blob); err != nil {
			return err
		}
	}

	if m.hash, err = mph.New(m.words, m.words, m.rev); err != nil {
		return err
	}
	m.vocab, err = segment.NewVocab(m.hash, m.ids, m.info)
	return err
}

func (m *Model) openRules() error {
	l := m.man.Lexer

	blob, err := m.section(l.Rules)
	if err != nil {
		return err
	}
	if m.rules, err = packed.NewMoore(blob); err != nil {
		return err
	}
	if blob, err = m.section(l.Actions); err != nil {
		return err
	}
	if m.actions, err = packed.NewMultiMap(blob); err != nil {
		return err
	}
	m.fns, err = m.optionalArray(l.Functions)
	return err
}

// optionalArray returns the array in section i, or nil for a negative
// index.
func (m *Model) optionalArray(i int) (fsa.Array, error) {
	if i < 0 {
		return nil, nil
	}
	blob, err := m.section(i)
	if err != nil {
		return nil, err
	}
	a, err := packed.NewArray(blob)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (m *Model) Name() string {
	return m.man.Name
}

func (m *Model) Manifest() config.Manifest {
	return m.man
}

// Fingerprint identifies the contents of the dump the model reads.
func (m *Model) Fingerprint() uint64 {
	return m.fingerprint
}

// Close releases the dump if the model owns it. The model must not be
// used afterwards.
func (m *Model) Close() error {
	if m.file == nil {
		return nil
	}
	return m.file.Close()
}

func (m *Model) String() string {
	return fmt.Sprintf("model(%s, %v, %016x)", m.man.Name, m.man.Engine, m.fingerprint)
}

// A session is one set of interpreters with their scratch buffers.
type session struct {
	dict *dict.Interpreter
	lex  *lexer.Engine
	seg  segment.Segmenter

	in      symbols
	lexToks []lexer.Token
	segToks []segment.Token
	info    []int32
	chain   []int32
}

func (m *Model) newSession() (*session, error) {
	s := &session{}
	man := m.man

	if m.hash != nil {
		conf := dict.Conf{
			IgnoreCase:  man.IgnoreCase,
			Transform:   transform(man.Normalize),
			RightToLeft: man.RightToLeft,
			Dfa:         m.words,
			Mealy:       m.words,
			IDs:         m.ids,
			Info:        m.info,
			MaxWordLen:  man.Limits.MaxWordLength,
			CacheSize:   man.CacheSize,
		}
		if m.chars != nil {
			conf.CharMap = m.chars
		}
		d, err := dict.New(conf)
		if err != nil {
			return nil, err
		}
		s.dict = d
		s.info = make([]int32, m.info.MaxCount())
		s.chain = make([]int32, fsa.MaxWordLen)
	}

	if m.rules != nil {
		lx, err := lexer.New(lexer.Conf{
			Dfa:            m.rules,
			Moore:          m.rules,
			Actions:        m.actions,
			Functions:      m.fns,
			MaxDepth:       man.Limits.MaxDepth,
			MaxTokenLength: man.Limits.MaxTokenLength,
			MaxInputLength: man.Limits.MaxInputLength,
			IgnoreCase:     man.IgnoreCase,
		})
		if err != nil {
			return nil, err
		}
		s.lex = lx
	}

	var seg segment.Segmenter
	switch man.Engine {
	case config.EngineBPE:
		b, err := segment.NewBPE(segment.BPEConf{
			Vocab:          m.vocab,
			WholeWords:     man.WholeWords,
			MaxInputLength: man.Limits.MaxInputLength,
			MaxTokenLength: man.Limits.MaxTokenLength,
		})
		if err != nil {
			return nil, err
		}
		seg = b
	case config.EngineUnigram:
		u, err := segment.NewUnigram(segment.UnigramConf{
			Vocab:          m.vocab,
			UnkScore:       float32(man.UnkScore),
			MaxInputLength: man.Limits.MaxInputLength,
			MaxTokenLength: man.Limits.MaxTokenLength,
		})
		if err != nil {
			return nil, err
		}
		seg = u
	case config.EngineWordPiece:
		w, err := segment.NewWordPiece(segment.WordPieceConf{
			Lexer:   s.lex,
			WordTag: man.WordTag,
		})
		if err != nil {
			return nil, err
		}
		seg = w
	}
	if seg != nil {
		s.seg = segment.MetricsWrap(seg, man.Engine.String())
	}
	return s, nil
}

func (m *Model) get() *session {
	if s, ok := m.sessions.Get().(*session); ok {
		return s
	}
	s, err := m.newSession()
	if err != nil {
		// The same configuration succeeded in New.
		panic(err)
	}
	return s
}

func (m *Model) put(s *session) {
	m.sessions.Put(s)
}

func transform(steps []string) dict.Transform {
	if len(steps) == 0 {
		return nil
	}
	ts := make([]dict.Transform, 0, len(steps))
	for _, step := range steps {
		switch step {
		case config.NormalizeNFKC:
			ts = append(ts, dict.NFKC())
		case config.NormalizeStripAccents:
			ts = append(ts, dict.StripAccents())
		case config.NormalizeFold:
			ts = append(ts, dict.Fold())
		}
	}
	return dict.Chain(ts...)
}
