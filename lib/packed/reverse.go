// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package packed

import (
	"github.com/syncthing/fsmtok/lib/dump"
	"github.com/syncthing/fsmtok/lib/fsa"
)

// Reverse is a view of an MPH reverse blob: per state, (ow, iw, dest)
// triples sorted by ow.
type Reverse struct {
	blob    []byte
	states  int
	initial int32
	finals  int
	nfinals int
	table   int
}

var _ fsa.MphReverse = (*Reverse)(nil)

func NewReverse(blob []byte) (*Reverse, error) {
	if err := dump.ExpectHeader(blob, dump.KindMphReverse); err != nil {
		return nil, err
	}
	r := dump.NewReader(blob, "mph reverse")
	if err := r.Check(0, 20); err != nil {
		return nil, err
	}
	v := &Reverse{
		blob:    blob,
		states:  int(uint32(dump.Le32(blob, 8))),
		initial: dump.Le32(blob, 12),
	}
	nfinals, err := r.Count(16, 4)
	if err != nil {
		return nil, err
	}
	v.nfinals = nfinals
	v.finals = 20
	if v.states <= 0 || v.states > len(blob)/4 || v.initial < 0 || int(v.initial) >= v.states {
		return nil, r.Corrupt(8, "bad state count %d or initial state %d", v.states, v.initial)
	}
	for i := 0; i < nfinals; i++ {
		f := dump.Le32(blob, v.finals+4*i)
		if f < 0 || int(f) >= v.states || (i > 0 && f <= dump.Le32(blob, v.finals+4*(i-1))) {
			return nil, r.Corrupt(v.finals+4*i, "final state %d out of range or order", f)
		}
	}
	v.table = v.finals + 4*nfinals
	if err := r.Check(v.table, 4*v.states); err != nil {
		return nil, err
	}
	for s := 0; s < v.states; s++ {
		off := int(uint32(dump.Le32(blob, v.table+4*s)))
		n, err := r.Count(off, 12)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			e := off + 4 + 12*i
			ow := dump.Le32(blob, e)
			dest := dump.Le32(blob, e+8)
			if ow < 0 || (i > 0 && ow < dump.Le32(blob, e-12)) {
				return nil, r.Corrupt(e, "state %d weights not sorted", s)
			}
			if dest < 0 || int(dest) >= v.states {
				return nil, r.Corrupt(e+8, "state %d destination %d out of range", s, dest)
			}
		}
	}
	return v, nil
}

func (v *Reverse) Initial() int32 {
	return v.initial
}

func (v *Reverse) IsFinal(state int32) bool {
	lo, hi := 0, v.nfinals
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		f := dump.Le32(v.blob, v.finals+4*m)
		switch {
		case f == state:
			return true
		case f < state:
			lo = m + 1
		default:
			hi = m
		}
	}
	return false
}

func (v *Reverse) Step(state, residual int32) (int32, int32, int32) {
	if state < 0 || int(state) >= v.states {
		return fsa.NoState, 0, 0
	}
	off := int(uint32(dump.Le32(v.blob, v.table+4*int(state))))
	n := int(dump.Le32(v.blob, off))
	// Find the first entry whose weight exceeds residual.
	lo, hi := 0, n
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if dump.Le32(v.blob, off+4+12*m) <= residual {
			lo = m + 1
		} else {
			hi = m
		}
	}
	if lo == 0 {
		return fsa.NoState, 0, 0
	}
	e := off + 4 + 12*(lo-1)
	return dump.Le32(v.blob, e+8), dump.Le32(v.blob, e+4), dump.Le32(v.blob, e)
}
