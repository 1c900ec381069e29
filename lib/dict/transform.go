// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dict

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// A Transform rewrites a normalized word before lookup, appending the
// result to dst. It reports false if the word could not be transformed, in
// which case the untransformed word is looked up.
type Transform interface {
	Transform(dst, word []int32) ([]int32, bool)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(dst, word []int32) ([]int32, bool)

func (f TransformFunc) Transform(dst, word []int32) ([]int32, bool) {
	return f(dst, word)
}

// TextTransform applies an x/text transformer to words. Words containing
// control symbols are not transformed.
type TextTransform struct {
	t transform.Transformer
}

func NewTextTransform(t transform.Transformer) *TextTransform {
	return &TextTransform{t: t}
}

func (t *TextTransform) Transform(dst, word []int32) ([]int32, bool) {
	for _, c := range word {
		if c < 0 || c > fsa.MaxCodepoint {
			return dst, false
		}
	}
	res, _, err := transform.String(t.t, string(word))
	if err != nil {
		return dst, false
	}
	for _, r := range res {
		dst = append(dst, r)
	}
	return dst, true
}

// NFKC normalizes words to Unicode normalization form KC.
func NFKC() *TextTransform {
	return NewTextTransform(norm.NFKC)
}

// StripAccents removes combining marks after canonical decomposition.
func StripAccents() *TextTransform {
	return NewTextTransform(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC))
}

// Fold applies full Unicode case folding, which unlike the per-symbol
// IgnoreCase step may change the length of a word.
func Fold() *TextTransform {
	return NewTextTransform(cases.Fold())
}

// Chain applies transforms in order. It fails if any of them fails.
func Chain(ts ...Transform) Transform {
	return TransformFunc(func(dst, word []int32) ([]int32, bool) {
		cur := word
		for _, t := range ts {
			next, ok := t.Transform(nil, cur)
			if !ok {
				return dst, false
			}
			cur = next
		}
		return append(dst, cur...), true
	})
}
