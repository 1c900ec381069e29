// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type LineFormat struct {
	TimestampFormat string
	LevelString     bool
	LevelSyslog     bool
}

type formattingOptions struct {
	LineFormat

	out          io.Writer
	recs         []*lineRecorder
	timeOverride time.Time
}

func SetLineFormat(f LineFormat) {
	globalFormatter.LineFormat = f
}

// handler formats records as a message followed by key=value pairs.
// Attributes added through WithAttrs are rendered once, up front.
type handler struct {
	opts   *formattingOptions
	prefix string // group prefix, "a.b." or empty
	pre    string // rendered attributes
}

var _ slog.Handler = (*handler)(nil)

// Levels are checked per package in Handle, once the caller is known.
func (*handler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *handler) Handle(_ context.Context, rec slog.Record) error {
	pkg, typ, src := caller(rec.PC)
	level := globalLevels.Get(pkg)
	if rec.Level < level {
		return nil
	}

	var lb lineBuilder
	lb.WriteString(rec.Message)
	rec.Attrs(func(a slog.Attr) bool {
		lb.attr(h.prefix, a)
		return true
	})
	lb.WriteString(h.pre)
	if pkg != "" {
		lb.attr("", slog.String("pkg", pkg))
		if level <= slog.LevelDebug {
			if typ != "" {
				lb.attr("", slog.String("type", typ))
			}
			lb.attr("", slog.String("src", src))
		}
	}

	line := Line{
		When:    cmp.Or(h.opts.timeOverride, rec.Time),
		Message: lb.String(),
		Level:   rec.Level,
		Pkg:     pkg,
	}
	for _, r := range h.opts.recs {
		r.record(line)
	}
	if h.opts.out != nil {
		_, _ = line.WriteTo(h.opts.out, h.opts.LineFormat)
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var lb lineBuilder
	lb.WriteString(h.pre)
	for _, a := range attrs {
		lb.attr(h.prefix, a)
	}
	return &handler{opts: h.opts, prefix: h.prefix, pre: lb.String()}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &handler{opts: h.opts, prefix: h.prefix + name + ".", pre: h.pre}
}

type lineBuilder struct {
	strings.Builder
}

// attr appends " key=value", flattening groups into dotted keys. Values
// that would be ambiguous in the output are quoted.
func (b *lineBuilder) attr(prefix string, a slog.Attr) {
	const confusables = " \"=[]{}"
	val := a.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range val.Group() {
			b.attr(prefix, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	v := val.String()
	if v == "" || strings.ContainsAny(v, confusables) {
		v = strconv.Quote(v)
	}
	b.WriteString(v)
}

// caller returns the short package name, receiver type and source
// location of the function at pc.
func caller(pc uintptr) (pkg, typ, src string) {
	if pc == 0 {
		return "", "", ""
	}
	fr, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if fr.Function == "" {
		return "", "", ""
	}
	pkg, typ = funcNameToPkg(fr.Function)
	return pkg, typ, path.Base(fr.File) + ":" + strconv.Itoa(fr.Line)
}

// funcNameToPkg maps a fully qualified function name to the short package
// name used for level control, plus the receiver type if any.
func funcNameToPkg(fn string) (string, string) {
	fn = strings.ToLower(fn)
	for _, dir := range []string{"lib/", "internal/", "cmd/"} {
		fn = strings.TrimPrefix(fn, "github.com/syncthing/fsmtok/"+dir)
	}

	pkg, rest, ok := strings.Cut(fn, ".")
	if !ok {
		return pkg, ""
	}
	typ, _, ok := strings.Cut(rest, ".")
	if !ok {
		return pkg, ""
	}
	typ = strings.TrimLeft(strings.TrimRight(typ, ")"), "(*")
	if typ == pkg {
		typ = ""
	}
	return pkg, typ
}
