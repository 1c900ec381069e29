// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"log/slog"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// The FSMTOK_TRACE environment variable sets packages to debug level by
// mentioning them, or to a specific level after a colon:
//
//	FSMTOK_TRACE="lexer,segment"        # both at DEBUG
//	FSMTOK_TRACE="lexer:WARN,dump:DEBUG"

func PackageDescrs() map[string]string {
	return globalLevels.Descrs()
}

func PackageLevels() map[string]slog.Level {
	return globalLevels.Levels()
}

// RegisterPackage adds a description for a package, listed by the CLI.
func RegisterPackage(pkg, descr string) {
	globalLevels.descrs.Store(pkg, descr)
}

func SetPackageLevel(pkg string, level slog.Level) {
	globalLevels.levels.Store(pkg, level)
}

func SetDefaultLevel(level slog.Level) {
	globalLevels.def.Set(level)
}

func SetLevelOverrides(trace string) {
	for _, pkg := range strings.Split(trace, ",") {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			continue
		}
		level := slog.LevelDebug
		if cutPkg, levelStr, ok := strings.Cut(pkg, ":"); ok {
			pkg = cutPkg
			if err := level.UnmarshalText([]byte(levelStr)); err != nil {
				slog.Warn("Bad log level requested in FSMTOK_TRACE", slog.String("pkg", pkg), slog.String("level", levelStr), Error(err))
				continue
			}
		}
		SetPackageLevel(pkg, level)
	}
}

// A levelTracker keeps the log level per package. Lookups happen for
// every log call and take no locks.
type levelTracker struct {
	def    slog.LevelVar
	descrs *xsync.MapOf[string, string]
	levels *xsync.MapOf[string, slog.Level]
}

func newLevelTracker(def slog.Level) *levelTracker {
	t := &levelTracker{
		descrs: xsync.NewMapOf[string, string](),
		levels: xsync.NewMapOf[string, slog.Level](),
	}
	t.def.Set(def)
	return t
}

func (t *levelTracker) Get(pkg string) slog.Level {
	if level, ok := t.levels.Load(pkg); ok {
		return level
	}
	return t.def.Level()
}

func (t *levelTracker) Descrs() map[string]string {
	m := make(map[string]string, t.descrs.Size())
	t.descrs.Range(func(pkg, descr string) bool {
		m[pkg] = descr
		return true
	})
	return m
}

// Levels returns the effective level of every registered package.
func (t *levelTracker) Levels() map[string]slog.Level {
	m := make(map[string]slog.Level, t.descrs.Size())
	t.descrs.Range(func(pkg, _ string) bool {
		m[pkg] = t.Get(pkg)
		return true
	})
	return m
}
