// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"log/slog"
)

// Error returns an attribute for the given error, or an empty attribute
// (which is not printed) for a nil error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// FilePath returns an attribute for a file system path.
func FilePath(path string) slog.Attr {
	return slog.String("path", path)
}

// Model returns an attribute naming a tokenizer model.
func Model(name string) slog.Attr {
	return slog.String("model", name)
}
