// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package fsa defines the capability interfaces shared by every automaton
// interpreter: Rabin-Scott DFAs, Mealy and Moore reactions, integer
// multi-maps, integer arrays and the reverse table of a minimal perfect
// hash.
//
// Each interface covers exactly one capability so that read-only packed
// views (package packed) and the in-memory automata of this package can be
// used interchangeably. States, input weights (iw) and output weights (ow)
// are int32; -1 means "no such state" or "no weight".
//
// Control symbols live above the Unicode range and never collide with real
// code points or bytes. Interpreters that accept arbitrary integer input
// substitute any symbol in the control range before feeding an automaton.
package fsa
