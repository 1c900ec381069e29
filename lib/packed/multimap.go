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

const (
	modeExplicit = 0
	modeFixed    = 1
)

// MultiMap header layout, following the blob header.
const (
	mmMode     = 8
	mmKeys     = 12
	mmMaxCount = 16
	mmData     = 20
)

// MultiMap is a view of a multi-map blob. Values are either stored with
// explicit per-key lengths (absent keys allowed) or with one fixed length
// computed from the header.
type MultiMap struct {
	blob     []byte
	mode     uint32
	keys     int
	maxCount int
	width    int
	values   int // offset of the fixed width values or the offset table
}

var _ fsa.MultiMap = (*MultiMap)(nil)

func NewMultiMap(blob []byte) (*MultiMap, error) {
	if err := dump.ExpectHeader(blob, dump.KindMultiMap); err != nil {
		return nil, err
	}
	r := dump.NewReader(blob, "multimap")
	if err := r.Check(0, mmData); err != nil {
		return nil, err
	}
	m := &MultiMap{
		blob:     blob,
		mode:     uint32(dump.Le32(blob, mmMode)),
		keys:     int(uint32(dump.Le32(blob, mmKeys))),
		maxCount: int(uint32(dump.Le32(blob, mmMaxCount))),
	}
	if m.keys > len(blob)/4 || m.maxCount > len(blob)/4 {
		return nil, r.Corrupt(mmKeys, "key count %d or max count %d too large", m.keys, m.maxCount)
	}

	switch m.mode {
	case modeFixed:
		w, err := r.Uint32(mmData)
		if err != nil {
			return nil, err
		}
		m.width = int(w)
		if m.width != m.maxCount {
			return nil, r.Corrupt(mmData, "width %d differs from max count %d", m.width, m.maxCount)
		}
		m.values = mmData + 4
		if m.keys > 0 && m.width > (len(blob)-m.values)/4/m.keys {
			return nil, r.Corrupt(m.values, "%d values of width %d do not fit", m.keys, m.width)
		}

	case modeExplicit:
		m.values = mmData
		if err := r.Check(m.values, 4*m.keys); err != nil {
			return nil, err
		}
		for k := 0; k < m.keys; k++ {
			off := dump.Le32(blob, m.values+4*k)
			if off == -1 {
				continue
			}
			n, err := r.Count(int(uint32(off)), 4)
			if err != nil {
				return nil, err
			}
			if n > m.maxCount {
				return nil, r.Corrupt(int(off), "key %d has %d values, more than the declared %d", k, n, m.maxCount)
			}
		}

	default:
		return nil, r.Corrupt(mmMode, "unknown mode %d", m.mode)
	}
	return m, nil
}

// lookup returns the offset of the values for key and their count, or a
// negative count when the key is absent.
func (m *MultiMap) lookup(key int32) (int, int) {
	if key < 0 || int(key) >= m.keys {
		return 0, -1
	}
	if m.mode == modeFixed {
		return m.values + 4*m.width*int(key), m.width
	}
	off := dump.Le32(m.blob, m.values+4*int(key))
	if off == -1 {
		return 0, -1
	}
	return int(off) + 4, int(dump.Le32(m.blob, int(off)))
}

func (m *MultiMap) Get(key int32, out []int32) int {
	off, n := m.lookup(key)
	if n > 0 && n <= len(out) {
		for i := 0; i < n; i++ {
			out[i] = dump.Le32(m.blob, off+4*i)
		}
	}
	return n
}

// At returns the i-th value stored for key, or -1.
func (m *MultiMap) At(key int32, i int) int32 {
	off, n := m.lookup(key)
	if i < 0 || i >= n {
		return -1
	}
	return dump.Le32(m.blob, off+4*i)
}

func (m *MultiMap) MaxCount() int {
	return m.maxCount
}

// Keys is one more than the largest key.
func (m *MultiMap) Keys() int {
	return m.keys
}

// Array is a view of an array blob.
type Array struct {
	blob []byte
	n    int
}

var _ fsa.Array = (*Array)(nil)

func NewArray(blob []byte) (*Array, error) {
	if err := dump.ExpectHeader(blob, dump.KindArray); err != nil {
		return nil, err
	}
	r := dump.NewReader(blob, "array")
	n, err := r.Count(8, 4)
	if err != nil {
		return nil, err
	}
	return &Array{blob: blob, n: n}, nil
}

func (a *Array) At(i int32) int32 {
	if i < 0 || int(i) >= a.n {
		return -1
	}
	return dump.Le32(a.blob, 12+4*int(i))
}

func (a *Array) Len() int {
	return a.n
}
