// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config implements reading and writing of model manifests. A
// manifest names the dump file of a model, says which dump section feeds
// which component and carries the limits and flags of the model.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// Extension is the file name extension of manifests.
const Extension = ".yaml"

var ErrInvalid = errors.New("invalid manifest")

// Normalization steps accepted in Manifest.Normalize.
const (
	NormalizeNFKC         = "nfkc"
	NormalizeStripAccents = "strip-accents"
	NormalizeFold         = "fold"
)

type Manifest struct {
	Name   string `json:"name"`
	Dump   string `json:"dump"`
	Engine Engine `json:"engine"`

	IgnoreCase  bool     `json:"ignoreCase"`
	RightToLeft bool     `json:"rightToLeft"`
	Normalize   []string `json:"normalize,omitempty"`

	// WordMark replaces spaces by U+2581 and prefixes the input with one
	// before segmentation, the way sentencepiece vocabularies expect.
	WordMark   bool `json:"wordMark"`
	WholeWords bool `json:"wholeWords"`

	UnkID       int32   `json:"unkId"`
	UnkScore    float64 `json:"unkScore" default:"-100"`
	WordTag     int32   `json:"wordTag"`
	SentenceTag int32   `json:"sentenceTag"`
	CacheSize   int     `json:"cacheSize" default:"1024"`

	Limits Limits        `json:"limits"`
	Vocab  VocabSections `json:"vocab"`
	Lexer  LexerSections `json:"lexer"`

	dir string
}

type Limits struct {
	MaxDepth       int `json:"maxDepth" default:"32"`
	MaxTokenLength int `json:"maxTokenLength" default:"300"`
	MaxInputLength int `json:"maxInputLength" default:"4096"`
	MaxWordLength  int `json:"maxWordLength" default:"300"`
}

// VocabSections are the dump sections of a word list compiled to a
// minimal perfect hash. A negative index means the section is absent.
type VocabSections struct {
	Automaton int `json:"automaton" default:"-1"`
	Reverse   int `json:"reverse" default:"-1"`
	IDs       int `json:"ids" default:"-1"`
	Info      int `json:"info" default:"-1"`

	// Tokens maps token ids to hash values, for models whose token ids
	// are not in hash order.
	Tokens int `json:"tokens" default:"-1"`
	// CharMap remaps characters of looked up words, after case folding.
	CharMap int `json:"charMap" default:"-1"`
}

func (v VocabSections) Enabled() bool {
	return v.Automaton >= 0
}

// LexerSections are the dump sections of a compiled rule set.
type LexerSections struct {
	Rules     int `json:"rules" default:"-1"`
	Actions   int `json:"actions" default:"-1"`
	Functions int `json:"functions" default:"-1"`
}

func (l LexerSections) Enabled() bool {
	return l.Rules >= 0
}

// New returns a manifest with default values.
func New(name, dump string) Manifest {
	var m Manifest
	setDefaults(&m)
	m.Name = name
	m.Dump = dump
	return m
}

// Parse reads a manifest. Unknown fields are an error.
func Parse(bs []byte) (Manifest, error) {
	var m Manifest
	setDefaults(&m)
	if err := yaml.UnmarshalStrict(bs, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := m.prepare(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks a manifest built in code the way Parse checks a read
// one.
func (m *Manifest) Validate() error {
	return m.prepare()
}

// Load reads the manifest at path. The model name defaults to the file
// name without extension and a relative dump path is taken relative to
// the manifest.
func Load(path string) (Manifest, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	m, err := Parse(bs)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// LoadDir loads every manifest in dir, sorted by name.
func LoadDir(dir string) ([]Manifest, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, err
	}
	ms := make([]Manifest, 0, len(paths))
	for _, path := range paths {
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	slices.SortFunc(ms, func(a, b Manifest) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ms, nil
}

// Marshal returns the manifest as YAML.
func (m Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// Save writes the manifest to path.
func (m Manifest) Save(path string) error {
	bs, err := m.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o644)
}

// DumpPath is the path of the dump file.
func (m Manifest) DumpPath() string {
	if m.dir == "" || filepath.IsAbs(m.Dump) {
		return m.Dump
	}
	return filepath.Join(m.dir, m.Dump)
}

func (m *Manifest) prepare() error {
	if m.Dump == "" {
		return fmt.Errorf("%w: no dump file", ErrInvalid)
	}
	if err := m.Limits.prepare(); err != nil {
		return err
	}
	for _, tag := range []int32{m.WordTag, m.SentenceTag} {
		if tag < 0 || tag > fsa.MaxTag {
			return fmt.Errorf("%w: tag %d out of range", ErrInvalid, tag)
		}
	}
	for _, n := range m.Normalize {
		switch n {
		case NormalizeNFKC, NormalizeStripAccents, NormalizeFold:
		default:
			return fmt.Errorf("%w: unknown normalization %q", ErrInvalid, n)
		}
	}
	if m.CacheSize < 0 {
		m.CacheSize = 0
	}

	if m.Vocab.Enabled() && m.Vocab.Info < 0 {
		return fmt.Errorf("%w: vocabulary without info section", ErrInvalid)
	}
	if !m.Vocab.Enabled() && m.Vocab.CharMap >= 0 {
		return fmt.Errorf("%w: character map without vocabulary", ErrInvalid)
	}
	if m.Lexer.Enabled() && m.Lexer.Actions < 0 {
		return fmt.Errorf("%w: rules without actions section", ErrInvalid)
	}

	switch m.Engine {
	case EngineBPE, EngineUnigram:
		if !m.Vocab.Enabled() {
			return fmt.Errorf("%w: engine %v needs a vocabulary", ErrInvalid, m.Engine)
		}
	case EngineWordPiece:
		if !m.Lexer.Enabled() || m.WordTag == 0 {
			return fmt.Errorf("%w: engine %v needs rules and a word tag", ErrInvalid, m.Engine)
		}
	}
	return nil
}

func (l *Limits) prepare() error {
	if l.MaxDepth < 0 || l.MaxDepth > fsa.MaxDepth {
		return fmt.Errorf("%w: maxDepth %d not in [0, %d]", ErrInvalid, l.MaxDepth, fsa.MaxDepth)
	}
	if l.MaxWordLength <= 0 || l.MaxWordLength > fsa.MaxWordLen {
		return fmt.Errorf("%w: maxWordLength %d not in [1, %d]", ErrInvalid, l.MaxWordLength, fsa.MaxWordLen)
	}
	if l.MaxInputLength <= 0 {
		return fmt.Errorf("%w: maxInputLength must be positive", ErrInvalid)
	}
	if l.MaxTokenLength < 0 {
		l.MaxTokenLength = 0
	}
	return nil
}
