// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package tokenizer

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/dump"
	"github.com/syncthing/fsmtok/lib/fsa"
)

func writeDump(t *testing.T, name string, c dump.Compression) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+c.Ext())
	fd, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, dump.Compress(fd, testDump(t), c))
	require.NoError(t, fd.Close())
	return path
}

func TestRegistryLoad(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	for _, c := range []dump.Compression{dump.CompressionNone, dump.CompressionLZ4, dump.CompressionZstd} {
		man := testManifest(config.EngineBPE)
		man.Name = "bpe-" + c.String()
		man.Dump = writeDump(t, man.Name, c)
		require.NoError(t, r.Register(man))
	}
	assert.Equal(t, []string{"bpe-lz4", "bpe-none", "bpe-zstd"}, r.Names())

	for _, name := range r.Names() {
		assert.False(t, r.Loaded(name))
		m, err := r.Get(name)
		require.NoError(t, err, name)
		assert.True(t, r.Loaded(name))

		again, err := r.Get(name)
		require.NoError(t, err)
		assert.Same(t, m, again, "loaded once")

		toks, err := m.TextToIDs("unable")
		require.NoError(t, err)
		assert.Equal(t, []Token{{ID: 3, Start: 0, End: 6, Text: "unable"}}, toks)
	}

	lz4, _ := r.Get("bpe-lz4")
	zstd, _ := r.Get("bpe-zstd")
	assert.Equal(t, lz4.Fingerprint(), zstd.Fingerprint())
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, fsa.ErrNotFound)

	man := testManifest(config.EngineBPE)
	man.Dump = filepath.Join(t.TempDir(), "nonexistent.bin")
	require.NoError(t, r.Register(man))
	assert.ErrorIs(t, r.Register(man), ErrDuplicateModel)

	_, err = r.Get(man.Name)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = r.Get(man.Name)
	assert.ErrorIs(t, err, os.ErrNotExist, "the failure is remembered")
	assert.False(t, r.Loaded(man.Name))

	got, ok := r.Manifest(man.Name)
	assert.True(t, ok)
	assert.Equal(t, man.Dump, got.Dump)
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	m := testModel(t, testManifest(config.EngineUnigram))
	require.NoError(t, r.Add(m))
	assert.ErrorIs(t, r.Add(m), ErrDuplicateModel)
	assert.True(t, r.Loaded(m.Name()))

	got, err := r.Get(m.Name())
	require.NoError(t, err)
	assert.Same(t, m, got)

	require.NoError(t, r.Close())
	assert.Empty(t, r.Names())
}

func TestRegistryConcurrentGet(t *testing.T) {
	r := NewRegistry()
	defer r.Close()
	man := testManifest(config.EngineBPE)
	man.Dump = writeDump(t, "model", dump.CompressionNone)
	require.NoError(t, r.Register(man))

	models := make([]*Model, 8)
	var wg sync.WaitGroup
	for i := range models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			models[i], _ = r.Get(man.Name)
		}()
	}
	wg.Wait()
	for _, m := range models {
		assert.NotNil(t, m)
		assert.Same(t, models[0], m)
	}
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, Default(), Default())
}
