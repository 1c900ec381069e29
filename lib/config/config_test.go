// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/d4l3k/messagediff"
)

func TestDefaults(t *testing.T) {
	m := New("test", "test.bin")

	if m.UnkScore != -100 || m.CacheSize != 1024 {
		t.Errorf("unexpected scalar defaults: %v %v", m.UnkScore, m.CacheSize)
	}
	expLimits := Limits{MaxDepth: 32, MaxTokenLength: 300, MaxInputLength: 4096, MaxWordLength: 300}
	if diff, equal := messagediff.PrettyDiff(expLimits, m.Limits); !equal {
		t.Errorf("limits:\n%s", diff)
	}
	if m.Vocab.Enabled() || m.Lexer.Enabled() {
		t.Error("sections should be absent by default")
	}
	if m.Engine != EngineNone {
		t.Error("engine should default to none")
	}
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
name: bert
dump: bert.bin.zst
engine: wordpiece
ignoreCase: true
normalize: [nfkc, strip-accents]
unkId: 100
wordTag: 1000
sentenceTag: 2
limits:
  maxInputLength: 512
vocab:
  automaton: 0
  reverse: 1
  ids: 2
  info: 3
  charMap: 7
lexer:
  rules: 4
  actions: 5
  functions: 6
`))
	if err != nil {
		t.Fatal(err)
	}

	exp := New("bert", "bert.bin.zst")
	exp.Engine = EngineWordPiece
	exp.IgnoreCase = true
	exp.Normalize = []string{NormalizeNFKC, NormalizeStripAccents}
	exp.UnkID = 100
	exp.WordTag = 1000
	exp.SentenceTag = 2
	exp.Limits.MaxInputLength = 512
	exp.Vocab = VocabSections{Automaton: 0, Reverse: 1, IDs: 2, Info: 3, Tokens: -1, CharMap: 7}
	exp.Lexer = LexerSections{Rules: 4, Actions: 5, Functions: 6}
	if diff, equal := messagediff.PrettyDiff(exp, m); !equal {
		t.Errorf("manifest:\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"no dump":        `name: x`,
		"unknown field":  "dump: x\nbogus: 1",
		"unknown engine": "dump: x\nengine: lstm",
		"engine vocab":   "dump: x\nengine: bpe",
		"wordpiece tag":  "dump: x\nengine: wordpiece\nlexer: {rules: 0, actions: 1}",
		"no info":        "dump: x\nvocab: {automaton: 0}",
		"no actions":     "dump: x\nlexer: {rules: 0}",
		"char map":       "dump: x\nvocab: {charMap: 0}",
		"depth":          "dump: x\nlimits: {maxDepth: 33}",
		"word length":    "dump: x\nlimits: {maxWordLength: 301}",
		"input length":   "dump: x\nlimits: {maxInputLength: 0}",
		"tag":            "dump: x\nwordTag: 65536",
		"normalization":  "dump: x\nnormalize: [lower]",
	}
	for name, in := range cases {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	m := New("", "model.bin")
	m.Engine = EngineBPE
	m.WordMark = true
	m.Vocab = VocabSections{Automaton: 0, Reverse: 1, IDs: 2, Info: 3, Tokens: 4, CharMap: -1}
	path := filepath.Join(dir, "sp"+Extension)
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "sp" {
		t.Errorf("name %q, expected the file name", loaded.Name)
	}
	if loaded.DumpPath() != filepath.Join(dir, "model.bin") {
		t.Errorf("dump path %q not relative to the manifest", loaded.DumpPath())
	}
	loaded.Name = ""
	loaded.dir = ""
	if diff, equal := messagediff.PrettyDiff(m, loaded); !equal {
		t.Errorf("round trip:\n%s", diff)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b", "a"} {
		if err := New("", name+".bin").Save(filepath.Join(dir, name+Extension)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a manifest"), 0o644); err != nil {
		t.Fatal(err)
	}

	ms, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 2 || ms[0].Name != "a" || ms[1].Name != "b" {
		t.Errorf("unexpected manifests %v", ms)
	}
}

func TestValidate(t *testing.T) {
	m := New("bpe", "model.bin")
	m.Engine = EngineBPE
	if err := m.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("bpe without vocabulary: %v", err)
	}
	m.Vocab = VocabSections{Automaton: 0, Reverse: 1, IDs: 2, Info: 3, Tokens: -1, CharMap: -1}
	if err := m.Validate(); err != nil {
		t.Error(err)
	}
}
