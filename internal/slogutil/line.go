// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// A Line is one formatted log line.
type Line struct {
	When    time.Time  `json:"when"`
	Message string     `json:"message"`
	Level   slog.Level `json:"level"`
	Pkg     string     `json:"pkg,omitempty"`
}

func (l Line) WriteTo(w io.Writer, f LineFormat) (int64, error) {
	var sb strings.Builder
	if f.LevelSyslog {
		fmt.Fprintf(&sb, "<%d>", syslogLevel(l.Level))
	}
	if f.TimestampFormat != "" {
		sb.WriteString(l.When.Format(f.TimestampFormat))
		sb.WriteRune(' ')
	}
	if f.LevelString {
		sb.WriteString(levelString(l.Level))
		sb.WriteRune(' ')
	}
	sb.WriteString(l.Message)
	sb.WriteRune('\n')
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func levelString(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERR"
	case l >= slog.LevelWarn:
		return "WRN"
	case l >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}

func syslogLevel(l slog.Level) int {
	switch {
	case l >= slog.LevelError:
		return 3
	case l >= slog.LevelWarn:
		return 4
	case l >= slog.LevelInfo:
		return 6
	default:
		return 7
	}
}
