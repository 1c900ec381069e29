// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package dump

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/syncthing/fsmtok/internal/slogutil"
)

// A File owns the buffer of a dump loaded from disk. Uncompressed dumps
// are memory mapped read-only; compressed ones are decompressed into
// memory. Views into the image are invalid after Close.
type File struct {
	image *Image
	mm    mmap.MMap
	fd    *os.File
}

// Open loads the dump at path, choosing the compression from the file
// name extension.
func Open(path string) (*File, error) {
	comp := CompressionFor(path)
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	f := &File{}
	var buf []byte
	if comp == CompressionNone {
		fi, err := fd.Stat()
		if err != nil {
			fd.Close()
			return nil, err
		}
		if fi.Size() < 4 {
			fd.Close()
			return nil, fmt.Errorf("%s: %w", path, NewReader(nil, "image header").Check(0, 4))
		}
		mm, err := mmap.Map(fd, mmap.RDONLY, 0)
		if err != nil {
			fd.Close()
			return nil, fmt.Errorf("mapping %s: %w", path, err)
		}
		f.mm = mm
		f.fd = fd
		buf = mm
	} else {
		buf, err = decompress(fd, comp)
		fd.Close()
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
	}

	im, err := NewImage(buf)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.image = im

	metricOpenBytes.WithLabelValues(comp.String()).Add(float64(len(buf)))
	metricOpenFiles.WithLabelValues(comp.String()).Inc()
	slog.Debug("Opened dump", slogutil.FilePath(path), slog.String("compression", comp.String()), slog.Int("sections", im.Sections()), slog.Int("bytes", len(buf)))
	return f, nil
}

// FromBytes wraps an in-memory dump.
func FromBytes(buf []byte) (*File, error) {
	im, err := NewImage(buf)
	if err != nil {
		return nil, err
	}
	return &File{image: im}, nil
}

func (f *File) Image() *Image {
	return f.image
}

// Close releases the buffer. It is safe to call more than once.
func (f *File) Close() error {
	var err error
	if f.mm != nil {
		err = f.mm.Unmap()
		f.mm = nil
	}
	if f.fd != nil {
		if cerr := f.fd.Close(); err == nil {
			err = cerr
		}
		f.fd = nil
	}
	return err
}
