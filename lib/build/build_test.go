// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package build

import (
	"strings"
	"testing"
)

func TestAllowedVersions(t *testing.T) {
	testcases := []struct {
		ver     string
		allowed bool
	}{
		{"v0.13.0", true},
		{"v0.12.11+22-gabcdef0", true},
		{"v0.13.0-beta0", true},
		{"v0.13.0-beta47", true},
		{"v0.13.0-beta47+1-gabcdef0", true},
		{"v0.13.0-beta.0", true},
		{"v0.13.0-beta.47+1-gabcdef0", true},
		{"v0.13.0-some-weird-but-allowed-tag", true},
		{"v0.13.0+not.allowed.to.do.this", false},
		{"v1.27.0+xyz", true},
		{"v1.0.0+45", true},
		{"v1.0.0-rc.1+3-g0123abc-dirty", true},
		{"1.0.0", false},
		{"v1.0", false},
	}

	for i, c := range testcases {
		if allowed := AllowedVersionExp.MatchString(c.ver); allowed != c.allowed {
			t.Errorf("%d: incorrect result %v != %v for %q", i, allowed, c.allowed, c.ver)
		}
	}
}

func TestReleaseFlags(t *testing.T) {
	defer func(v string) {
		Version = v
		setBuildData()
	}(Version)

	cases := []struct {
		ver                        string
		release, candidate, isBeta bool
	}{
		{"v1.2.3", true, false, false},
		{"v1.2.3-rc.1", true, true, true},
		{"v1.2.3-beta4", true, false, true},
		{"v1.2.3+4-gabcdef0", false, false, false},
		{"v1.2.3-rc.1+4-gabcdef0", false, true, true},
	}
	for _, c := range cases {
		Version = c.ver
		setBuildData()
		if IsRelease != c.release || IsCandidate != c.candidate || IsBeta != c.isBeta {
			t.Errorf("%s: release=%v candidate=%v beta=%v", c.ver, IsRelease, IsCandidate, IsBeta)
		}
		if !strings.HasPrefix(LongVersion, "fsmtok "+c.ver+" ") {
			t.Errorf("%s: unexpected long version %q", c.ver, LongVersion)
		}
	}
}

func TestLongVersion(t *testing.T) {
	if !strings.HasPrefix(LongVersion, "fsmtok unknown-dev") || !strings.Contains(LongVersion, `"Aluminium Automaton"`) {
		t.Errorf("unexpected long version %q", LongVersion)
	}
}
