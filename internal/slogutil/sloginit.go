// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"io"
	"log/slog"
	"os"
)

var (
	// GlobalRecorder holds the recent lines of every level, served by
	// the API.
	GlobalRecorder Recorder = globalRecorder

	globalRecorder  = newLineRecorder(slog.LevelDebug, maxLogLines)
	globalFormatter = &formattingOptions{
		LineFormat: LineFormat{
			TimestampFormat: "2006-01-02 15:04:05",
			LevelString:     true,
		},
		recs: []*lineRecorder{globalRecorder},
		out:  logWriter(),
	}
	globalLevels = newLevelTracker(slog.LevelInfo)
)

func logWriter() io.Writer {
	if os.Getenv("LOGGER_DISCARD") != "" {
		return io.Discard
	}
	// Standard output is reserved for command results.
	return os.Stderr
}

func init() {
	slog.SetDefault(slog.New(&handler{opts: globalFormatter}))
	SetLevelOverrides(os.Getenv("FSMTOK_TRACE"))
}
