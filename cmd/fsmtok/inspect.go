// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/dump"
)

type inspectCmd struct {
	Path string `arg:"" type:"existingfile" help:"Dump file, or model manifest"`
}

func (c *inspectCmd) Run(ctx *cmdContext) error {
	path := c.Path
	roles := make(map[int]string)
	if filepath.Ext(path) == config.Extension {
		man, err := config.Load(path)
		if err != nil {
			return err
		}
		path = man.DumpPath()
		for role, i := range map[string]int{
			"vocabulary":    man.Vocab.Automaton,
			"reverse":       man.Vocab.Reverse,
			"info ids":      man.Vocab.IDs,
			"info":          man.Vocab.Info,
			"token index":   man.Vocab.Tokens,
			"char map":      man.Vocab.CharMap,
			"rules":         man.Lexer.Rules,
			"actions":       man.Lexer.Actions,
			"function root": man.Lexer.Functions,
		} {
			if i >= 0 {
				roles[i] = role
			}
		}
	}

	f, err := dump.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	im := f.Image()

	tw := tabwriter.NewWriter(ctx.out, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", path)
	fmt.Fprintf(tw, "Compression:\t%v\n", dump.CompressionFor(path))
	fmt.Fprintf(tw, "Size:\t%d\n", len(im.Bytes()))
	fmt.Fprintf(tw, "Fingerprint:\t%016x\n", im.Fingerprint())
	fmt.Fprintf(tw, "Sections:\t%d\n", im.Sections())
	if err := tw.Flush(); err != nil {
		return err
	}

	tw = tabwriter.NewWriter(ctx.out, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\n#\tKind\tBytes\tRole\n")
	for i := range im.Sections() {
		sec, err := im.Section(i)
		if err != nil {
			return err
		}
		kind := "?"
		if k, err := dump.ReadHeader(sec); err == nil {
			kind = k.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i, kind, len(sec), roles[i])
	}
	return tw.Flush()
}
