// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"encoding/binary"

	"github.com/syncthing/fsmtok/lib/fsa"
)

// Reader reads little-endian integers from a byte buffer, validating every
// access against the buffer length.
type Reader struct {
	buf  []byte
	what string
}

func NewReader(buf []byte, what string) Reader {
	return Reader{buf: buf, what: what}
}

func (r Reader) Len() int {
	return len(r.buf)
}

func (r Reader) Bytes() []byte {
	return r.buf
}

// Check verifies that n bytes starting at off are inside the buffer.
func (r Reader) Check(off, n int) error {
	if off < 0 || n < 0 || off > len(r.buf) || n > len(r.buf)-off {
		return fsa.Corrupt(r.what, off, "%d bytes past end of %d byte buffer", n, len(r.buf))
	}
	return nil
}

func (r Reader) Uint32(off int) (uint32, error) {
	if err := r.Check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[off:]), nil
}

func (r Reader) Int32(off int) (int32, error) {
	v, err := r.Uint32(off)
	return int32(v), err
}

// Count reads an element count at off and verifies that count elements of
// size bytes each follow it.
func (r Reader) Count(off, size int) (int, error) {
	v, err := r.Uint32(off)
	if err != nil {
		return 0, err
	}
	n := int(v)
	if n < 0 || (size > 0 && n > (len(r.buf)-off-4)/size) {
		return 0, fsa.Corrupt(r.what, off, "count %d does not fit in buffer", v)
	}
	return n, nil
}

// Corrupt returns a format error located in this reader.
func (r Reader) Corrupt(off int, format string, args ...any) error {
	return fsa.Corrupt(r.what, off, format, args...)
}

// Le32 reads a little-endian int32 at off without validation. Callers must
// have validated the structure beforehand.
func Le32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off:]))
}
