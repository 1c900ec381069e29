// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dict

import (
	"errors"
	"slices"
	"testing"

	"github.com/d4l3k/messagediff"

	"github.com/syncthing/fsmtok/lib/compile"
	"github.com/syncthing/fsmtok/lib/fsa"
	"github.com/syncthing/fsmtok/lib/packed"
)

type views struct {
	aut  *packed.Automaton
	ids  *packed.Array
	info *packed.MultiMap
}

func compileWords(t *testing.T, words map[string][]int32) views {
	t.Helper()
	v := compile.NewVocabulary()
	for w, info := range words {
		if err := v.AddString(w, info...); err != nil {
			t.Fatal(err)
		}
	}
	secs := v.Build().Sections()
	aut, err := packed.NewAutomaton(secs[compile.SectionAutomaton])
	if err != nil {
		t.Fatal(err)
	}
	ids, err := packed.NewArray(secs[compile.SectionIDs])
	if err != nil {
		t.Fatal(err)
	}
	info, err := packed.NewMultiMap(secs[compile.SectionInfo])
	if err != nil {
		t.Fatal(err)
	}
	return views{aut, ids, info}
}

var testWords = map[string][]int32{
	"cat":     {10},
	"cats":    {10, 1},
	"dog":     {20},
	"strasse": {30},
	"naive":   {40},
}

func wordInfo(t *testing.T, d *Interpreter, word string) []int32 {
	t.Helper()
	out := make([]int32, 4)
	n, err := d.WordToInfo([]int32(word), out)
	if err != nil {
		t.Fatalf("%q: %v", word, err)
	}
	return out[:n]
}

func TestModes(t *testing.T) {
	v := compileWords(t, testWords)
	hashed, err := New(Conf{Dfa: v.aut, Mealy: v.aut, IDs: v.ids, Info: v.info})
	if err != nil {
		t.Fatal(err)
	}
	weighted, err := New(Conf{Dfa: v.aut, Moore: v.aut, Info: v.info})
	if err != nil {
		t.Fatal(err)
	}

	for w, exp := range testWords {
		for name, d := range map[string]*Interpreter{"hashed": hashed, "weighted": weighted} {
			if diff, equal := messagediff.PrettyDiff(exp, wordInfo(t, d, w)); !equal {
				t.Errorf("%s %q:\n%s", name, w, diff)
			}
		}
		id1, _ := hashed.WordToInfoID([]int32(w))
		id2, _ := weighted.WordToInfoID([]int32(w))
		if id1 != id2 {
			t.Errorf("%q: info ids %d and %d differ", w, id1, id2)
		}
	}

	if _, err := hashed.WordToInfoID([]int32("ca")); !errors.Is(err, fsa.ErrNotFound) {
		t.Errorf("prefix found: %v", err)
	}
	if _, err := weighted.WordToInfoID([]int32("catss")); !errors.Is(err, fsa.ErrNotFound) {
		t.Errorf("extension found: %v", err)
	}
}

func TestNormalization(t *testing.T) {
	v := compileWords(t, testWords)
	charMap := fsa.NewMap()
	charMap.Set('ß', 's', 's')
	charMap.Set(0x200D) // zero width joiner is dropped

	d, err := New(Conf{
		IgnoreCase: true,
		CharMap:    charMap,
		Transform:  StripAccents(),
		Dfa:        v.aut,
		Mealy:      v.aut,
		IDs:        v.ids,
		Info:       v.info,
		CacheSize:  8,
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string][]int32{
		"CAT":             {10},
		"Stra\u00dfe":     {30},
		"na\u00efve":      {40},
		"d\u200do\u200dg": {20},
	}
	for w, exp := range cases {
		for range 2 { // the second round is served from the cache
			if diff, equal := messagediff.PrettyDiff(exp, wordInfo(t, d, w)); !equal {
				t.Errorf("%q:\n%s", w, diff)
			}
		}
	}

	got, err := d.Normalize(nil, []int32("NA\u00cfVE"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "naive" {
		t.Errorf("normalized to %q", string(got))
	}
}

func TestCaseFolding(t *testing.T) {
	v := compileWords(t, map[string][]int32{
		"sun":   {1},
		"σοφόσ": {2},
	})
	d, err := New(Conf{IgnoreCase: true, Dfa: v.aut, Mealy: v.aut, IDs: v.ids, Info: v.info})
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string][]int32{
		"SUN":   {1},
		"ſun":   {1},
		"ΣΟΦΌΣ": {2},
		"σοφός": {2},
	}
	for w, exp := range cases {
		if diff, equal := messagediff.PrettyDiff(exp, wordInfo(t, d, w)); !equal {
			t.Errorf("%q:\n%s", w, diff)
		}
	}
}

func TestTransformFallback(t *testing.T) {
	v := compileWords(t, testWords)
	failing := TransformFunc(func(dst, word []int32) ([]int32, bool) {
		return append(dst, 'x'), false
	})
	d, err := New(Conf{Transform: failing, Dfa: v.aut, Mealy: v.aut, IDs: v.ids, Info: v.info})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.WordToInfoID([]int32("dog")); err != nil {
		t.Error("untransformed word not looked up:", err)
	}

	// Control symbols cannot be represented as text.
	if _, ok := NFKC().Transform(nil, []int32{'a', fsa.Any}); ok {
		t.Error("control symbol transformed")
	}
}

func TestChain(t *testing.T) {
	tr := Chain(Fold(), StripAccents())
	got, ok := tr.Transform([]int32("prefix:"), []int32("ÀBC\u00df"))
	if !ok || string(got) != "prefix:abcss" {
		t.Errorf("chained transform gave %q, %v", string(got), ok)
	}
}

func TestRightToLeft(t *testing.T) {
	rev := make(map[string][]int32)
	for w, info := range testWords {
		r := []rune(w)
		slices.Reverse(r)
		rev[string(r)] = info
	}
	v := compileWords(t, rev)
	d, err := New(Conf{RightToLeft: true, Dfa: v.aut, Mealy: v.aut, IDs: v.ids, Info: v.info})
	if err != nil {
		t.Fatal(err)
	}
	if diff, equal := messagediff.PrettyDiff([]int32{10, 1}, wordInfo(t, d, "cats")); !equal {
		t.Error(diff)
	}
}

func TestErrors(t *testing.T) {
	var unset *Interpreter
	if _, err := unset.WordToInfoID([]int32("a")); !errors.Is(err, fsa.ErrNotConfigured) {
		t.Error("nil interpreter:", err)
	}
	if _, err := (&Interpreter{}).MaxInfoSize(); !errors.Is(err, fsa.ErrNotConfigured) {
		t.Error("zero interpreter:", err)
	}
	if _, err := New(Conf{}); !errors.Is(err, fsa.ErrNotConfigured) {
		t.Error("empty configuration accepted")
	}

	v := compileWords(t, testWords)
	noInfo, err := New(Conf{Dfa: v.aut, Moore: v.aut})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := noInfo.WordToInfoID([]int32("dog")); err != nil {
		t.Error("info id needs no info map:", err)
	}
	if _, err := noInfo.WordToInfo([]int32("dog"), nil); !errors.Is(err, fsa.ErrNotConfigured) {
		t.Error("info without info map:", err)
	}

	d, _ := New(Conf{Dfa: v.aut, Moore: v.aut, Info: v.info, MaxWordLen: 4})
	if _, err := d.WordToInfoID([]int32("strasse")); !errors.Is(err, fsa.ErrLimitExceeded) {
		t.Error("long word accepted:", err)
	}
	if _, err := d.InfoIDToInfo(99, nil); !errors.Is(err, fsa.ErrNotFound) {
		t.Error("unknown info id:", err)
	}
	if n, _ := d.MaxInfoSize(); n != 2 {
		t.Errorf("max info size %d", n)
	}

	// Two phase: a short buffer reports the size and stays untouched.
	out := []int32{-1}
	n, err := d.WordToInfo([]int32("cats"), out)
	if err != nil || n != 2 || out[0] != -1 {
		t.Errorf("short buffer: %d, %v, %v", n, err, out)
	}
}
