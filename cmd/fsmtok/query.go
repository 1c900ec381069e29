// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/tokenizer"
)

type modelOptions struct {
	Model string `short:"m" required:"" type:"existingfile" env:"FSMTOK_MODEL" placeholder:"MANIFEST" help:"Model manifest"`
	JSON  bool   `help:"Print results as JSON lines"`
}

func (o *modelOptions) load() (*tokenizer.Model, error) {
	man, err := config.Load(o.Model)
	if err != nil {
		return nil, err
	}
	return tokenizer.Load(man)
}

// print writes v as a JSON line, or as its tab separated fields.
func (o *modelOptions) print(w io.Writer, v any, fields ...any) error {
	if o.JSON {
		bs, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", bs)
		return err
	}
	strs := make([]string, len(fields))
	for i, f := range fields {
		strs[i] = fmt.Sprint(f)
	}
	_, err := fmt.Fprintln(w, strings.Join(strs, "\t"))
	return err
}

// eachText calls fn for every argument, or for every line of in when
// there are no arguments.
func eachText(args []string, in io.Reader, fn func(text string) error) error {
	if len(args) > 0 {
		for _, arg := range args {
			if err := fn(arg); err != nil {
				return err
			}
		}
		return nil
	}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

type lookupCmd struct {
	modelOptions
	Words []string `arg:"" optional:"" help:"Words to look up; lines of standard input when absent"`
}

func (c *lookupCmd) Run(ctx *cmdContext) error {
	m, err := c.load()
	if err != nil {
		return err
	}
	defer m.Close()

	return eachText(c.Words, ctx.in, func(word string) error {
		id, err := m.WordInfoID(word)
		if err != nil {
			return fmt.Errorf("%q: %w", word, err)
		}
		info, err := m.InfoByID(id)
		if err != nil {
			return err
		}
		res := struct {
			Word string  `json:"word"`
			ID   int32   `json:"id"`
			Info []int32 `json:"info"`
		}{word, id, info}
		return c.print(ctx.out, res, word, id, info)
	})
}

type id2wordCmd struct {
	modelOptions
	IDs []string `arg:"" optional:"" name:"id" help:"Token ids; lines of standard input when absent"`
}

func (c *id2wordCmd) Run(ctx *cmdContext) error {
	m, err := c.load()
	if err != nil {
		return err
	}
	defer m.Close()

	return eachText(c.IDs, ctx.in, func(arg string) error {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return nil
		}
		v, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("token id %q: %w", arg, err)
		}
		id := int32(v)
		text, err := m.IDsToText([]int32{id})
		if err != nil {
			return err
		}
		res := struct {
			ID   int32  `json:"id"`
			Text string `json:"text"`
		}{id, text}
		return c.print(ctx.out, res, id, text)
	})
}

type segmentCmd struct {
	modelOptions
	Text []string `arg:"" optional:"" help:"Texts to segment; lines of standard input when absent"`
}

func (c *segmentCmd) Run(ctx *cmdContext) error {
	m, err := c.load()
	if err != nil {
		return err
	}
	defer m.Close()

	return eachText(c.Text, ctx.in, func(text string) error {
		toks, err := m.TextToIDs(text)
		if err != nil {
			return err
		}
		if c.JSON {
			return c.print(ctx.out, toks)
		}
		ids := make([]string, len(toks))
		for i, tok := range toks {
			ids[i] = fmt.Sprint(tok.ID)
		}
		return c.print(ctx.out, nil, strings.Join(ids, " "))
	})
}

type tokenizeCmd struct {
	modelOptions
	Sentences bool     `help:"Group words into sentences"`
	Text      []string `arg:"" optional:"" help:"Texts to tokenize; lines of standard input when absent"`
}

func (c *tokenizeCmd) Run(ctx *cmdContext) error {
	m, err := c.load()
	if err != nil {
		return err
	}
	defer m.Close()

	return eachText(c.Text, ctx.in, func(text string) error {
		if c.Sentences {
			sents, err := m.TextToSentences(text)
			if err != nil {
				return err
			}
			for _, s := range sents {
				if err := c.print(ctx.out, s, s.Start, s.End, s.Text); err != nil {
					return err
				}
			}
			return nil
		}

		words, err := m.TextToWords(text)
		if err != nil {
			return err
		}
		for _, w := range words {
			if err := c.print(ctx.out, w, w.Tag, w.Start, w.End, w.Text); err != nil {
				return err
			}
		}
		return nil
	})
}
