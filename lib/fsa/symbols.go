// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package fsa

import (
	"unicode"
	"unicode/utf8"
)

const (
	// NoState is returned for a missing state or transition.
	NoState int32 = -1
	// NoWeight is returned when no output weight is attached.
	NoWeight int32 = -1

	MaxCodepoint int32 = 0x10FFFF
)

// Control symbols.
const (
	Epsilon int32 = MaxCodepoint + 1 + iota
	Any
	LeftAnchor
	RightAnchor
	EndOfSequence
)

// Compile-time limits shared by the interpreters.
const (
	MaxWordLen = 300
	MaxTag     = 65535
	MaxDepth   = 32

	// MaxInputLen is the default bound on the length of inputs to the
	// lexical and segmentation engines.
	MaxInputLen = 4096
)

// IsControl reports whether iw is one of the reserved control symbols.
func IsControl(iw int32) bool {
	return iw >= Epsilon && iw <= EndOfSequence
}

// Fold returns the simple case folding of c. Symbols outside the code point
// range are returned unchanged.
func Fold(c int32) int32 {
	switch {
	case c < 0 || c > MaxCodepoint:
		return c
	case c < utf8.RuneSelf:
		if 'A' <= c && c <= 'Z' {
			return c + 'a' - 'A'
		}
		return c
	case c == 0x130 || c == 0x131:
		// Dotted capital I and dotless i only fold under Turkic rules.
		return c
	case c >= 0x13A0 && c <= 0x13FD, c >= 0xAB70 && c <= 0xABBF:
		// Cherokee folds to upper case.
		return unicode.ToUpper(c)
	}
	// Upper casing first merges the variant forms (long s, final sigma,
	// symbol forms of Greek letters) before lower casing.
	return unicode.ToLower(unicode.ToUpper(c))
}

// A Symbol is any integer representation of an input character: raw
// bytes, UTF-16 units or code points.
type Symbol interface {
	~uint8 | ~uint16 | ~int32 | ~uint32 | ~int
}

// Widen converts a chain of symbols into input weights, reusing dst when it
// is large enough.
func Widen[S Symbol](dst []int32, src []S) []int32 {
	if cap(dst) < len(src) {
		dst = make([]int32, len(src))
	}
	dst = dst[:len(src)]
	for i, s := range src {
		dst[i] = int32(s)
	}
	return dst
}
