// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package fsa

import (
	"errors"
	"testing"

	"github.com/d4l3k/messagediff"
)

func TestAutomatonTransitions(t *testing.T) {
	a := NewAutomaton()
	s1 := a.AddState()
	s2 := a.AddState()
	a.AddTransition(0, 'b', s2)
	a.AddTransitionOw(0, 'a', s1, 7)
	a.SetFinal(s2, true)

	if d := a.Dest(0, 'a'); d != s1 {
		t.Errorf("Dest(0, a) = %d, expected %d", d, s1)
	}
	if d := a.Dest(0, 'c'); d != NoState {
		t.Errorf("Dest(0, c) = %d, expected NoState", d)
	}
	if d, ow := a.DestOw(0, 'a'); d != s1 || ow != 7 {
		t.Errorf("DestOw(0, a) = %d, %d", d, ow)
	}
	if _, ow := a.DestOw(0, 'b'); ow != NoWeight {
		t.Errorf("unexpected weight %d on unweighted transition", ow)
	}
	if !a.IsFinal(s2) || a.IsFinal(s1) || a.IsFinal(42) {
		t.Error("wrong finality")
	}
	if diff, equal := messagediff.PrettyDiff([]int32{'a', 'b'}, a.Alphabet()); !equal {
		t.Errorf("alphabet mismatch:\n%s", diff)
	}
	if !a.HasTransitionOws() || a.HasStateOws() {
		t.Error("wrong reaction flags")
	}
}

func TestAutomatonOws(t *testing.T) {
	a := NewAutomaton()
	s := a.AddState()
	a.SetOws(s, 3, 1, 2)

	if ow := a.Ow(s); ow != 3 {
		t.Errorf("Ow = %d, expected 3", ow)
	}
	if ow := a.Ow(0); ow != NoWeight {
		t.Errorf("Ow on bare state = %d", ow)
	}
	small := make([]int32, 2)
	if n := a.Ows(s, small); n != 3 {
		t.Errorf("Ows = %d, expected 3", n)
	}
	if small[0] != 0 {
		t.Error("short buffer was written to")
	}
	big := make([]int32, a.MaxOwsCount())
	a.Ows(s, big)
	if diff, equal := messagediff.PrettyDiff([]int32{3, 1, 2}, big); !equal {
		t.Errorf("ows mismatch:\n%s", diff)
	}
}

func TestMapAndSlice(t *testing.T) {
	m := NewMap()
	m.Set(4, 1, 2, 3)
	m.Set(1)
	m.Set(-1, 9)

	if n := m.Get(2, nil); n != -1 {
		t.Errorf("absent key gave %d", n)
	}
	if n := m.Get(1, nil); n != 0 {
		t.Errorf("empty key gave %d", n)
	}
	out := make([]int32, m.MaxCount())
	if n := m.Get(4, out); n != 3 || out[2] != 3 {
		t.Errorf("Get(4) = %d, %v", n, out)
	}
	if diff, equal := messagediff.PrettyDiff([]int32{1, 4}, m.Keys()); !equal {
		t.Errorf("keys mismatch:\n%s", diff)
	}

	s := Slice{5, 6}
	if s.At(1) != 6 || s.At(2) != -1 || s.At(-1) != -1 {
		t.Error("slice bounds")
	}
}

func TestReverseStep(t *testing.T) {
	r := NewReverse(3, 0)
	r.AddStep(0, 2, 'b', 2)
	r.AddStep(0, 0, 'a', 1)
	r.SetFinal(1)

	cases := []struct {
		residual int32
		dest     int32
		iw       int32
	}{
		{0, 1, 'a'},
		{1, 1, 'a'},
		{2, 2, 'b'},
		{9, 2, 'b'},
	}
	for _, tc := range cases {
		dest, iw, _ := r.Step(0, tc.residual)
		if dest != tc.dest || iw != tc.iw {
			t.Errorf("Step(0, %d) = %d, %c; expected %d, %c", tc.residual, dest, iw, tc.dest, tc.iw)
		}
	}
	if dest, _, _ := r.Step(2, 0); dest != NoState {
		t.Error("step from a state without steps")
	}
}

func TestErrors(t *testing.T) {
	err := error(Corrupt("automaton", 12, "state %d out of range", 5))
	if !errors.Is(err, ErrCorruptFormat) {
		t.Error("format error should match ErrCorruptFormat")
	}
	if !errors.Is(LimitError("input", 400, 300), ErrLimitExceeded) {
		t.Error("limit error should match ErrLimitExceeded")
	}
	if IsControl('a') || !IsControl(LeftAnchor) || IsControl(MaxCodepoint) {
		t.Error("control range")
	}
	if got := Widen(nil, []byte("ab")); len(got) != 2 || got[1] != 'b' {
		t.Errorf("Widen = %v", got)
	}
}

func TestFold(t *testing.T) {
	cases := map[int32]int32{
		'A':      'a',
		'z':      'z',
		'7':      '7',
		'\u017f': 's',
		'\u03c2': '\u03c3',
		'\u03a3': '\u03c3',
		'\u03d0': '\u03b2',
		'\u03d1': '\u03b8',
		'\u03d5': '\u03c6',
		'\u03f0': '\u03ba',
		'\u03f1': '\u03c1',
		'\u03f5': '\u03b5',
		'\u1e9e': '\u00df',
		'\u212a': 'k',
		'\u01c5': '\u01c6',
		'\u0130': '\u0130',
		'\u0131': '\u0131',
		'\uab70': '\u13a0',
		Any:      Any,
		-1:       -1,
	}
	for c, exp := range cases {
		if got := Fold(c); got != exp {
			t.Errorf("Fold(%U) = %U, expected %U", c, got, exp)
		}
	}
}
