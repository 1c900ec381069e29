// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrNoSection is returned when a section index is outside the image.
var ErrNoSection = errors.New("no such section")

// An Image is a validated view of a dump: a section count, a table of
// section offsets and the sections themselves. The image borrows the
// buffer; it is valid for as long as the owner keeps the buffer alive.
type Image struct {
	buf  []byte
	offs []int
}

// NewImage validates the container header of buf.
func NewImage(buf []byte) (*Image, error) {
	r := NewReader(buf, "image header")
	n, err := r.Count(0, 4)
	if err != nil {
		return nil, err
	}
	start := 4 + 4*n
	offs := make([]int, n+1)
	prev := start
	for i := 0; i < n; i++ {
		v, err := r.Uint32(4 + 4*i)
		if err != nil {
			return nil, err
		}
		off := int(v)
		if off < prev || off > len(buf) {
			return nil, r.Corrupt(4+4*i, "section %d offset %d out of order or range", i, off)
		}
		offs[i] = off
		prev = off
	}
	offs[n] = len(buf)
	return &Image{buf: buf, offs: offs}, nil
}

// Sections returns the number of sections.
func (im *Image) Sections() int {
	return len(im.offs) - 1
}

// Section returns the bytes of section i.
func (im *Image) Section(i int) ([]byte, error) {
	if i < 0 || i >= im.Sections() {
		return nil, fmt.Errorf("section %d of %d: %w", i, im.Sections(), ErrNoSection)
	}
	return im.buf[im.offs[i]:im.offs[i+1]:im.offs[i+1]], nil
}

// Bytes returns the whole dump.
func (im *Image) Bytes() []byte {
	return im.buf
}

// Fingerprint identifies the dump contents.
func (im *Image) Fingerprint() uint64 {
	return xxhash.Sum64(im.buf)
}

func (im *Image) String() string {
	return fmt.Sprintf("image(%d sections, %d bytes, %016x)", im.Sections(), len(im.buf), im.Fingerprint())
}
