// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package compile builds the automata and maps interpreted by the rest of
// the module from simple sources: word lists with their info records, and
// deterministic rule patterns built from symbol sets. It does not
// determinize or minimize anything; sources that would need it are
// rejected.
package compile
