// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package packed

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/d4l3k/messagediff"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// testAutomaton accepts "ab" and "ac" with Mealy weights and Moore sets.
func testAutomaton() *fsa.Automaton {
	a := fsa.NewAutomaton()
	s1 := a.AddState()
	s2 := a.AddState()
	s3 := a.AddState()
	a.AddTransitionOw(0, 'a', s1, 0)
	a.AddTransitionOw(s1, 'c', s3, 1)
	a.AddTransitionOw(s1, 'b', s2, 0)
	a.SetFinal(s2, true)
	a.SetFinal(s3, true)
	a.SetOws(s2, 10)
	a.SetOws(s3, 20, 21)
	return a
}

func TestAutomatonRoundTrip(t *testing.T) {
	mem := testAutomaton()
	v, err := NewAutomaton(EncodeAutomaton(mem))
	if err != nil {
		t.Fatal(err)
	}

	if v.Initial() != mem.Initial() || v.StateCount() != mem.StateCount() {
		t.Fatal("header mismatch")
	}
	if diff, equal := messagediff.PrettyDiff(mem.Alphabet(), v.Alphabet()); !equal {
		t.Errorf("alphabet mismatch:\n%s", diff)
	}
	for s := int32(-1); s <= int32(mem.StateCount()); s++ {
		if v.IsFinal(s) != mem.IsFinal(s) {
			t.Errorf("state %d finality differs", s)
		}
		if v.Ow(s) != mem.Ow(s) {
			t.Errorf("state %d ow %d != %d", s, v.Ow(s), mem.Ow(s))
		}
		for _, iw := range []int32{'a', 'b', 'c', 'd', fsa.Any} {
			d1, ow1 := v.DestOw(s, iw)
			d2, ow2 := mem.DestOw(s, iw)
			if d1 != d2 || ow1 != ow2 {
				t.Errorf("DestOw(%d, %c) = %d, %d; expected %d, %d", s, iw, d1, ow1, d2, ow2)
			}
		}
	}

	out := make([]int32, v.MaxOwsCount())
	if n := v.Ows(3, out); n != 2 || out[0] != 20 || out[1] != 21 {
		t.Errorf("Ows(3) = %d, %v", n, out)
	}
	if n := v.Ows(3, out[:1]); n != 2 {
		t.Errorf("short Ows = %d", n)
	}
}

func TestAutomatonFlavours(t *testing.T) {
	plain := fsa.NewAutomaton()
	plain.AddTransition(0, 'x', plain.AddState())
	blob := EncodeAutomaton(plain)

	if _, err := NewAutomaton(blob); err != nil {
		t.Fatal(err)
	}
	if _, err := NewMealy(blob); !errors.Is(err, fsa.ErrCorruptFormat) {
		t.Error("plain automaton accepted as Mealy")
	}
	if _, err := NewMoore(blob); !errors.Is(err, fsa.ErrCorruptFormat) {
		t.Error("plain automaton accepted as Moore")
	}
	v, _ := NewAutomaton(blob)
	if _, ow := v.DestOw(0, 'x'); ow != fsa.NoWeight {
		t.Errorf("weight %d on plain automaton", ow)
	}
	if v.Ow(0) != fsa.NoWeight {
		t.Error("state weight on plain automaton")
	}
}

func TestAutomatonCorrupt(t *testing.T) {
	blob := EncodeAutomaton(testAutomaton())

	for n := 0; n < len(blob); n++ {
		if _, err := NewAutomaton(blob[:n]); err == nil {
			t.Fatalf("truncation to %d bytes not detected", n)
		}
	}

	bad := append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(bad[autInitial:], 99)
	if _, err := NewAutomaton(bad); !errors.Is(err, fsa.ErrCorruptFormat) {
		t.Errorf("bad initial state not detected: %v", err)
	}

	// Point the first transition of state 0 at a state that does not exist.
	bad = append([]byte(nil), blob...)
	v, _ := NewAutomaton(blob)
	off, _ := v.record(0)
	binary.LittleEndian.PutUint32(bad[off+8:], 1000)
	if _, err := NewAutomaton(bad); !errors.Is(err, fsa.ErrCorruptFormat) {
		t.Errorf("bad destination not detected: %v", err)
	}
}

func TestMultiMap(t *testing.T) {
	explicit := fsa.NewMap()
	explicit.Set(0, 1, 2, 3)
	explicit.Set(2, 4)
	explicit.Set(5)

	fixed := fsa.NewMap()
	fixed.Set(0, 1, 2)
	fixed.Set(1, 3, 4)

	for name, mem := range map[string]*fsa.Map{"explicit": explicit, "fixed": fixed} {
		v, err := NewMultiMap(EncodeMultiMap(mem))
		if err != nil {
			t.Fatal(name, err)
		}
		if v.MaxCount() != mem.MaxCount() {
			t.Errorf("%s: max count %d != %d", name, v.MaxCount(), mem.MaxCount())
		}
		for k := int32(-1); k < 8; k++ {
			got := make([]int32, v.MaxCount())
			exp := make([]int32, mem.MaxCount())
			n1, n2 := v.Get(k, got), mem.Get(k, exp)
			if n1 != n2 {
				t.Errorf("%s: Get(%d) = %d, expected %d", name, k, n1, n2)
				continue
			}
			if diff, equal := messagediff.PrettyDiff(exp, got); !equal {
				t.Errorf("%s: key %d values differ:\n%s", name, k, diff)
			}
		}
	}

	v, _ := NewMultiMap(EncodeMultiMap(explicit))
	if v.mode != modeExplicit {
		t.Error("sparse map encoded as fixed")
	}
	if v.At(0, 2) != 3 || v.At(0, 3) != -1 || v.At(1, 0) != -1 {
		t.Error("At mismatch")
	}
	if f, _ := NewMultiMap(EncodeMultiMap(fixed)); f.mode != modeFixed {
		t.Error("dense map not encoded as fixed")
	}
}

func TestMultiMapCorrupt(t *testing.T) {
	m := fsa.NewMap()
	m.Set(1, 7, 8)
	blob := EncodeMultiMap(m)
	for n := 0; n < len(blob); n++ {
		if _, err := NewMultiMap(blob[:n]); err == nil {
			t.Fatalf("truncation to %d bytes not detected", n)
		}
	}
	bad := append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(bad[mmMode:], 7)
	if _, err := NewMultiMap(bad); !errors.Is(err, fsa.ErrCorruptFormat) {
		t.Error("unknown mode not detected")
	}
}

func TestArray(t *testing.T) {
	v, err := NewArray(EncodeArray([]int32{3, -1, 5}))
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 3 || v.At(0) != 3 || v.At(2) != 5 || v.At(3) != -1 {
		t.Error("array mismatch")
	}
	if _, err := NewArray(EncodeArray([]int32{1, 2})[:14]); err == nil {
		t.Error("truncated array accepted")
	}
}

func TestReverse(t *testing.T) {
	mem := fsa.NewReverse(3, 0)
	mem.AddStep(0, 0, 'a', 1)
	mem.AddStep(0, 3, 'b', 2)
	mem.SetFinal(1)
	mem.SetFinal(2)

	v, err := NewReverse(EncodeReverse(mem))
	if err != nil {
		t.Fatal(err)
	}
	for _, residual := range []int32{0, 2, 3, 10} {
		d1, iw1, ow1 := v.Step(0, residual)
		d2, iw2, ow2 := mem.Step(0, residual)
		if d1 != d2 || iw1 != iw2 || ow1 != ow2 {
			t.Errorf("Step(0, %d) = %d %d %d; expected %d %d %d", residual, d1, iw1, ow1, d2, iw2, ow2)
		}
	}
	if !v.IsFinal(2) || v.IsFinal(0) {
		t.Error("finality mismatch")
	}
	if d, _, _ := v.Step(7, 0); d != fsa.NoState {
		t.Error("step from invalid state")
	}
}
