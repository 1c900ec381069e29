// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the container format a dump file is stored in.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZstd
)

var compressionMarshal = map[Compression]string{
	CompressionNone: "none",
	CompressionLZ4:  "lz4",
	CompressionZstd: "zstd",
}

var compressionUnmarshal = map[string]Compression{
	"":     CompressionNone,
	"none": CompressionNone,
	"lz4":  CompressionLZ4,
	"zstd": CompressionZstd,
	"zst":  CompressionZstd,
}

var compressionExt = map[Compression]string{
	CompressionNone: ".bin",
	CompressionLZ4:  ".lz4",
	CompressionZstd: ".zst",
}

func (c Compression) String() string {
	if s, ok := compressionMarshal[c]; ok {
		return s
	}
	return fmt.Sprintf("compression(%d)", int(c))
}

func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Compression) UnmarshalText(bs []byte) error {
	v, ok := compressionUnmarshal[string(bs)]
	if !ok {
		return fmt.Errorf("unknown compression %q", bs)
	}
	*c = v
	return nil
}

// Ext is the file name extension used for the compression.
func (c Compression) Ext() string {
	return compressionExt[c]
}

// CompressionFor guesses the compression of a file from its name.
func CompressionFor(path string) Compression {
	switch filepath.Ext(path) {
	case ".lz4":
		return CompressionLZ4
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Compress writes data to w using the given compression.
func Compress(w io.Writer, data []byte, c Compression) error {
	switch c {
	case CompressionNone:
		_, err := w.Write(data)
		return err

	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if _, err := zw.Write(data); err != nil {
			return err
		}
		return zw.Close()

	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()

	default:
		return fmt.Errorf("compress: unsupported %v", c)
	}
}

// decompress reads a whole compressed stream.
func decompress(r io.Reader, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(r))

	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)

	default:
		return io.ReadAll(r)
	}
}
