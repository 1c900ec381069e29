// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/syncthing/fsmtok/internal/slogutil"
	"github.com/syncthing/fsmtok/lib/config"
	"github.com/syncthing/fsmtok/lib/fsa"
)

var ErrDuplicateModel = errors.New("model already registered")

// A Registry holds named models. Models registered by manifest are loaded
// on first use, exactly once; a failed load is remembered.
type Registry struct {
	entries *xsync.MapOf[string, *entry]
}

type entry struct {
	once  sync.Once
	man   config.Manifest
	model *Model
	err   error

	loaded atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{
		entries: xsync.NewMapOf[string, *entry](),
	}
}

// Default is the process wide registry, created on first use.
var Default = sync.OnceValue(NewRegistry)

// Register adds a model to be loaded from its manifest on first use.
func (r *Registry) Register(man config.Manifest) error {
	if _, loaded := r.entries.LoadOrStore(man.Name, &entry{man: man}); loaded {
		return fmt.Errorf("%s: %w", man.Name, ErrDuplicateModel)
	}
	slog.Debug("Registered model", slogutil.Model(man.Name), slogutil.FilePath(man.DumpPath()))
	return nil
}

// Add adds an already built model.
func (r *Registry) Add(m *Model) error {
	e := &entry{man: m.man, model: m}
	e.once.Do(func() {})
	e.loaded.Store(true)
	if _, loaded := r.entries.LoadOrStore(m.Name(), e); loaded {
		return fmt.Errorf("%s: %w", m.Name(), ErrDuplicateModel)
	}
	return nil
}

// Get returns the named model, loading it if needed.
func (r *Registry) Get(name string) (*Model, error) {
	e, ok := r.entries.Load(name)
	if !ok {
		return nil, fmt.Errorf("model %s: %w", name, fsa.ErrNotFound)
	}
	e.once.Do(func() {
		e.model, e.err = Load(e.man)
		if e.err != nil {
			metricLoads.WithLabelValues("error").Inc()
			slog.Warn("Failed to load model", slogutil.Model(name), slogutil.Error(e.err))
			return
		}
		e.loaded.Store(true)
		metricLoads.WithLabelValues("ok").Inc()
	})
	return e.model, e.err
}

// Names returns the names of all registered models, sorted.
func (r *Registry) Names() []string {
	var names []string
	r.entries.Range(func(name string, _ *entry) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Manifest returns the manifest of the named model without loading it.
func (r *Registry) Manifest(name string) (config.Manifest, bool) {
	e, ok := r.entries.Load(name)
	if !ok {
		return config.Manifest{}, false
	}
	return e.man, true
}

// Loaded reports whether the named model has been loaded successfully.
func (r *Registry) Loaded(name string) bool {
	e, ok := r.entries.Load(name)
	return ok && e.loaded.Load()
}

// Close removes all models, closing those that were loaded.
func (r *Registry) Close() error {
	var errs []error
	r.entries.Range(func(name string, e *entry) bool {
		r.entries.Delete(name)
		e.once.Do(func() {})
		if e.model != nil {
			errs = append(errs, e.model.Close())
		}
		return true
	})
	return errors.Join(errs...)
}
