// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies the structure serialized in a blob.
type Kind uint16

const (
	KindAutomaton  Kind = 1
	KindMultiMap   Kind = 2
	KindArray      Kind = 3
	KindMphReverse Kind = 4
)

const (
	blobMagic = 0x4D53
	// BlobVersion is the only blob layout version understood.
	BlobVersion = 1
	// BlobHeaderSize is the size of the header every blob starts with.
	BlobHeaderSize = 8
)

func (k Kind) String() string {
	switch k {
	case KindAutomaton:
		return "automaton"
	case KindMultiMap:
		return "multimap"
	case KindArray:
		return "array"
	case KindMphReverse:
		return "mph-reverse"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// AppendHeader appends a blob header of the given kind to dst.
func AppendHeader(dst []byte, kind Kind) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, blobMagic|uint32(kind)<<16)
	return binary.LittleEndian.AppendUint32(dst, BlobVersion)
}

// ReadHeader returns the kind of a blob, validating its header.
func ReadHeader(blob []byte) (Kind, error) {
	r := NewReader(blob, "blob header")
	magic, err := r.Uint32(0)
	if err != nil {
		return 0, err
	}
	if magic&0xffff != blobMagic {
		return 0, r.Corrupt(0, "bad magic %#x", magic)
	}
	version, err := r.Uint32(4)
	if err != nil {
		return 0, err
	}
	if version != BlobVersion {
		return 0, r.Corrupt(4, "unsupported blob version %d", version)
	}
	return Kind(magic >> 16), nil
}

// ExpectHeader validates that blob starts with a header of the given kind.
func ExpectHeader(blob []byte, kind Kind) error {
	k, err := ReadHeader(blob)
	if err != nil {
		return err
	}
	if k != kind {
		return NewReader(blob, kind.String()).Corrupt(0, "blob is a %v", k)
	}
	return nil
}
