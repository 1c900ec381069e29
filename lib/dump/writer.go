// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"encoding/binary"
	"io"
)

// A Writer assembles blobs into a dump.
type Writer struct {
	sections [][]byte
}

// Add appends a section and returns its index.
func (w *Writer) Add(blob []byte) int {
	w.sections = append(w.sections, blob)
	return len(w.sections) - 1
}

// Bytes returns the serialized dump. Sections start on four byte
// boundaries.
func (w *Writer) Bytes() []byte {
	size := 4 + 4*len(w.sections)
	for _, s := range w.sections {
		size += padded(len(s))
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(w.sections)))
	off := 4 + 4*len(w.sections)
	for _, s := range w.sections {
		out = binary.LittleEndian.AppendUint32(out, uint32(off))
		off += padded(len(s))
	}
	for _, s := range w.sections {
		out = append(out, s...)
		for i := len(s); i < padded(len(s)); i++ {
			out = append(out, 0)
		}
	}
	return out
}

func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.Bytes())
	return int64(n), err
}

func padded(n int) int {
	return (n + 3) &^ 3
}
