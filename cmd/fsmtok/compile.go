// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/syncthing/fsmtok/internal/slogutil"
	"github.com/syncthing/fsmtok/lib/compile"
	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/dump"
)

type compileCmd struct {
	Out      string             `arg:"" placeholder:"MANIFEST" help:"Manifest to write; the dump is written next to it"`
	Vocab    string             `type:"existingfile" placeholder:"PATH" help:"Vocabulary, one word, token id and optional score per line"`
	Rules    string             `type:"existingfile" placeholder:"PATH" help:"Rules, one function id, pattern and action per line"`
	Compress dump.Compression   `default:"none" help:"Dump compression (none, lz4, zstd)"`
	Engine   config.Engine      `default:"none" help:"Segmentation engine (none, bpe, unigram, wordpiece)"`
	UnkID    int32              `name:"unk-id" help:"Token id for unknown input"`
	WordTag  int32              `help:"Tag of the words that WordPiece segments"`
	SentTag  int32              `name:"sentence-tag" help:"Tag that ends a sentence"`
	Case     bool               `name:"ignore-case" help:"Match lower cased input"`
	Mark     bool               `name:"word-mark" help:"Mark word starts with U+2581"`
	Norm     []string           `name:"normalize" help:"Dictionary normalization steps (nfkc, strip-accents, fold)"`
	Limits   compileLimitsFlags `embed:"" prefix:"max-"`
}

type compileLimitsFlags struct {
	Input int `default:"4096" help:"Longest input, in symbols"`
	Token int `default:"300" help:"Longest token, in symbols"`
	Word  int `default:"300" help:"Longest dictionary word, in symbols"`
	Depth int `default:"32" help:"Deepest function call nesting"`
}

func (c *compileCmd) Run(ctx *cmdContext) error {
	if c.Vocab == "" && c.Rules == "" {
		return errors.New("nothing to compile, need --vocab or --rules")
	}

	b := compile.NewBundle()
	if c.Vocab != "" {
		v, err := readFile(c.Vocab, compile.ReadVocabulary)
		if err != nil {
			return err
		}
		b.AddDictionary(v.Build())
	}
	if c.Rules != "" {
		rules, err := readFile(c.Rules, compile.ReadRules)
		if err != nil {
			return err
		}
		lex, err := rules.Build()
		if err != nil {
			return fmt.Errorf("%s: %w", c.Rules, err)
		}
		b.AddLexicon(lex)
	}

	name := strings.TrimSuffix(filepath.Base(c.Out), filepath.Ext(c.Out))
	dumpPath := filepath.Join(filepath.Dir(c.Out), name+c.Compress.Ext())

	man := b.Manifest(name, filepath.Base(dumpPath))
	man.Engine = c.Engine
	man.UnkID = c.UnkID
	man.WordTag = c.WordTag
	man.SentenceTag = c.SentTag
	man.IgnoreCase = c.Case
	man.WordMark = c.Mark
	man.Normalize = c.Norm
	man.Limits = config.Limits{
		MaxDepth:       c.Limits.Depth,
		MaxTokenLength: c.Limits.Token,
		MaxInputLength: c.Limits.Input,
		MaxWordLength:  c.Limits.Word,
	}
	if err := man.Validate(); err != nil {
		return err
	}

	fd, err := os.Create(dumpPath)
	if err != nil {
		return err
	}
	if err := dump.Compress(fd, b.Bytes(), c.Compress); err != nil {
		fd.Close()
		return err
	}
	if err := fd.Close(); err != nil {
		return err
	}
	if err := man.Save(c.Out); err != nil {
		return err
	}

	slog.Info("Compiled model", slogutil.Model(name), slogutil.FilePath(dumpPath), slog.String("compression", c.Compress.String()))
	_, err = fmt.Fprintln(ctx.out, c.Out)
	return err
}

func readFile[T any](path string, read func(r io.Reader) (T, error)) (T, error) {
	fd, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer fd.Close()
	v, err := read(fd)
	if err != nil {
		return v, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
