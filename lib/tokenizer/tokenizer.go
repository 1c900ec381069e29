// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package tokenizer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/lexer"
	"github.com/syncthing/fsmtok/lib/segment"
)

// A Token is a segment of the input text with its token id. Start and
// End are byte offsets, End exclusive.
type Token struct {
	ID    int32  `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// A Word is a tagged span found by the model's rules.
type Word struct {
	Tag   int32  `json:"tag"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type Sentence struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

func (m *Model) notConfigured(what string) error {
	return fmt.Errorf("model %s has no %s: %w", m.man.Name, what, fsa.ErrNotConfigured)
}

// TextToWords returns the top level tokens the rules find in text. Tokens
// emitted by called functions inside a reported token are left out.
func (m *Model) TextToWords(text string) (words []Word, err error) {
	done := m.account(opWords)
	defer func() { done(err) }()

	if m.rules == nil {
		return nil, m.notConfigured("rules")
	}
	s := m.get()
	defer m.put(s)

	s.in.decode(text, false, false)
	toks, err := s.lexAll()
	if err != nil {
		return nil, err
	}

	last := -1
	for _, tok := range toks {
		if tok.From <= last {
			continue
		}
		last = tok.To
		start, end := s.in.span(tok.From, tok.To)
		words = append(words, Word{Tag: tok.Tag, Start: start, End: end, Text: text[start:end]})
	}
	return words, nil
}

// TextToSentences groups the words of text into sentences. A sentence
// ends after a word tagged with the manifest's sentence tag, or at the
// end of the text.
func (m *Model) TextToSentences(text string) ([]Sentence, error) {
	words, err := m.TextToWords(text)
	if err != nil {
		return nil, err
	}
	metricOperations.WithLabelValues(m.man.Name, opSentences).Inc()

	var sents []Sentence
	var cur []Word
	flush := func() {
		if len(cur) == 0 {
			return
		}
		start, end := cur[0].Start, cur[len(cur)-1].End
		sents = append(sents, Sentence{Start: start, End: end, Text: text[start:end], Words: cur})
		cur = nil
	}
	for _, w := range words {
		cur = append(cur, w)
		if m.man.SentenceTag != 0 && w.Tag == m.man.SentenceTag {
			flush()
		}
	}
	flush()
	return sents, nil
}

// TextToIDs segments text into tokens, using the manifest's unknown id
// for symbols no token covers.
func (m *Model) TextToIDs(text string) (toks []Token, err error) {
	done := m.account(opIDs)
	defer func() { done(err) }()

	if m.man.Engine == config.EngineNone {
		return nil, m.notConfigured("segmentation engine")
	}
	s := m.get()
	defer m.put(s)

	s.in.decode(text, m.man.IgnoreCase, m.man.WordMark)
	segs, err := s.segment(s.in.syms, m.man.UnkID)
	if err != nil {
		return nil, err
	}
	toks = make([]Token, len(segs))
	for i, seg := range segs {
		start, end := s.in.span(seg.Start, seg.End)
		toks[i] = Token{ID: seg.ID, Start: start, End: end, Text: text[start:end]}
	}
	return toks, nil
}

// ProcessInts segments a symbol array. The result is laid out as
// repeated (id, start, end) with inclusive symbol positions. It returns
// the number of ints in the result, and copies it to out only if it fits.
func (m *Model) ProcessInts(in, out []int32, unk int32) (n int, err error) {
	done := m.account(opInts)
	defer func() { done(err) }()

	if m.man.Engine == config.EngineNone {
		return -1, m.notConfigured("segmentation engine")
	}
	s := m.get()
	defer m.put(s)

	segs, err := s.segment(in, unk)
	if err != nil {
		return -1, err
	}
	n = 3 * len(segs)
	if n <= len(out) {
		for i, seg := range segs {
			out[3*i] = seg.ID
			out[3*i+1] = int32(seg.Start)
			out[3*i+2] = int32(seg.End)
		}
	}
	return n, nil
}

// IDsToText concatenates the vocabulary entries of ids. Without a token
// index in the model, token ids are hash values.
func (m *Model) IDsToText(ids []int32) (text string, err error) {
	done := m.account(opText)
	defer func() { done(err) }()

	if m.hash == nil || m.rev == nil {
		return "", m.notConfigured("reverse vocabulary")
	}
	s := m.get()
	defer m.put(s)

	var sb strings.Builder
	for _, id := range ids {
		h := id
		if m.tokens != nil {
			h = m.tokens.At(id)
		}
		n := m.hash.Chain(h, s.chain)
		if n < 0 {
			return "", fmt.Errorf("token %d: %w", id, fsa.ErrNotFound)
		}
		if n > len(s.chain) {
			s.chain = make([]int32, n)
			m.hash.Chain(h, s.chain)
		}
		for _, c := range s.chain[:n] {
			if m.man.WordMark && c == segment.WordMark {
				c = ' '
			}
			sb.WriteRune(c)
		}
	}
	text = sb.String()
	if m.man.WordMark {
		text = strings.TrimPrefix(text, " ")
	}
	return text, nil
}

// WordInfoID returns the info id of word in the model's dictionary.
func (m *Model) WordInfoID(word string) (id int32, err error) {
	done := m.account(opInfo)
	defer func() { done(err) }()

	if m.hash == nil {
		return -1, m.notConfigured("vocabulary")
	}
	s := m.get()
	defer m.put(s)

	s.in.decode(word, false, false)
	return s.dict.WordToInfoID(s.in.syms)
}

// WordInfo returns the info record of word.
func (m *Model) WordInfo(word string) (info []int32, err error) {
	done := m.account(opInfo)
	defer func() { done(err) }()

	if m.hash == nil {
		return nil, m.notConfigured("vocabulary")
	}
	s := m.get()
	defer m.put(s)

	s.in.decode(word, false, false)
	n, err := s.dict.WordToInfo(s.in.syms, s.info)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.info[:n]), nil
}

// InfoByID returns the info record with the given id.
func (m *Model) InfoByID(id int32) (info []int32, err error) {
	done := m.account(opInfo)
	defer func() { done(err) }()

	if m.hash == nil {
		return nil, m.notConfigured("vocabulary")
	}
	s := m.get()
	defer m.put(s)

	n, err := s.dict.InfoIDToInfo(id, s.info)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.info[:n]), nil
}

// MaxInfoSize is the size of the largest info record.
func (m *Model) MaxInfoSize() (int, error) {
	if m.hash == nil {
		return -1, m.notConfigured("vocabulary")
	}
	return m.info.MaxCount(), nil
}

// lexAll runs the lexer over the decoded input, growing the token buffer
// as needed.
func (s *session) lexAll() ([]lexer.Token, error) {
	for {
		n, err := s.lex.Process(s.in.syms, s.lexToks)
		if err != nil {
			return nil, err
		}
		if n <= len(s.lexToks) {
			return s.lexToks[:n], nil
		}
		s.lexToks = make([]lexer.Token, n)
	}
}

// segment runs the segmenter over in. Every token covers at least one
// symbol, so len(in) tokens always suffice.
func (s *session) segment(in []int32, unk int32) ([]segment.Token, error) {
	if len(s.segToks) < len(in) {
		s.segToks = make([]segment.Token, len(in))
	}
	n, err := s.seg.Process(in, s.segToks, unk)
	if err != nil {
		return nil, err
	}
	if n > len(s.segToks) {
		return nil, fmt.Errorf("%d tokens for %d symbols: %w", n, len(in), fsa.ErrBufferTooSmall)
	}
	return s.segToks[:n], nil
}
