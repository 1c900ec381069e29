// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command fsmtok compiles, inspects and serves finite state tokenizer
// models.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/syncthing/fsmtok/internal/slogutil"
	"github.com/syncthing/fsmtok/lib/build"
	"github.com/syncthing/fsmtok/lib/svcutil"
)

type CLI struct {
	Verbose   bool `short:"v" help:"Log at debug level"`
	LogSyslog bool `env:"FSMTOK_LOG_SYSLOG" help:"Log with syslog level prefixes and without timestamps, for journald"`

	Compile  compileCmd  `cmd:"" help:"Compile a vocabulary and rules into a model"`
	Inspect  inspectCmd  `cmd:"" help:"Show the sections of a dump or model"`
	Lookup   lookupCmd   `cmd:"" help:"Look up words in a model's vocabulary"`
	ID2Word  id2wordCmd  `cmd:"" name:"id2word" help:"Turn token ids back into text"`
	Segment  segmentCmd  `cmd:"" help:"Segment text into token ids"`
	Tokenize tokenizeCmd `cmd:"" help:"Split text into words or sentences"`
	Serve    serveCmd    `cmd:"" help:"Serve models over HTTP"`
	Version  versionCmd  `cmd:"" help:"Show version"`
}

// cmdContext carries the standard streams to the commands.
type cmdContext struct {
	in  io.Reader
	out io.Writer
}

func (cli *CLI) AfterApply() error {
	if cli.Verbose {
		slogutil.SetDefaultLevel(slog.LevelDebug)
	}
	if cli.LogSyslog {
		slogutil.SetLineFormat(slogutil.LineFormat{LevelSyslog: true})
	}
	return nil
}

type versionCmd struct{}

func (versionCmd) Run(ctx *cmdContext) error {
	_, err := fmt.Fprintln(ctx.out, build.LongVersion)
	return err
}

func newParser(cli *CLI, ctx *cmdContext) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("fsmtok"),
		kong.Description("Finite state tokenizer models"),
		kong.UsageOnError(),
		kong.Bind(ctx),
	)
}

func main() {
	var cli CLI
	ctx := &cmdContext{in: os.Stdin, out: os.Stdout}
	parser, err := newParser(&cli, ctx)
	if err != nil {
		panic(err)
	}
	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	if err := kongCtx.Run(); err != nil {
		slog.Error("Failed", slog.String("command", kongCtx.Command()), slogutil.Error(err))
		os.Exit(svcutil.ExitStatusOf(err).AsInt())
	}
}
