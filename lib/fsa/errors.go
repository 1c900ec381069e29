// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package fsa

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured  = errors.New("not configured")
	ErrNotFound       = errors.New("not found")
	ErrLimitExceeded  = errors.New("limit exceeded")
	ErrCorruptFormat  = errors.New("corrupt format")
	ErrBufferTooSmall = errors.New("buffer too small")
)

// FormatError describes an inconsistency in a dump.
type FormatError struct {
	What   string // blob or structure being read
	Offset int
	Reason string
}

func Corrupt(what string, offset int, format string, args ...any) *FormatError {
	return &FormatError{
		What:   what,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.What, e.Offset, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrCorruptFormat
}

// LimitError returns an error wrapping ErrLimitExceeded.
func LimitError(what string, n, limit int) error {
	return fmt.Errorf("%s %d exceeds %d: %w", what, n, limit, ErrLimitExceeded)
}
