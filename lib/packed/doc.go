// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package packed implements read-only views over the blobs of a dump and
// the encoders that produce those blobs.
//
// A view is constructed by validating its blob once: every count, offset,
// state reference and ordering constraint is checked against the blob
// length. Malformed blobs are rejected with an error matching
// fsa.ErrCorruptFormat. After construction, accessors read the blob
// directly, never allocate and never fail; a missing transition or key is
// reported as -1.
package packed
