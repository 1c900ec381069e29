// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package build

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const dateFormat = "2006-01-02 15:04:05 MST"

// fsmtok v1.1.4-rc.1+30-g6aaae618-dirty "Aluminium Automaton" (go1.23.2 linux-amd64) jb@build.example.com 2026-05-23 16:08:14 UTC [foo, bar]
var (
	longVersionRE = regexp.MustCompile(`^fsmtok\s+(v[^\s]+|unknown-dev[^\s]*)\s+"([^"]+)"\s+\(([^\s]+)\s+([^-]+)-([^)]+)\)\s+([^\s]+)(?:\s+(\d{4}-\d\d-\d\d \d\d:\d\d:\d\d [A-Z]+))?\s*(?:\[(.+)\])?$`)
	gitExtraRE    = regexp.MustCompile(`\+\d+-g([0-9a-f]+)`) // "+30-g6aaae618"
)

type VersionParts struct {
	Version  string    // "v1.1.4-rc.1+30-g6aaae618-dirty"
	Tag      string    // "v1.1.4-rc.1"
	Commit   string    // "6aaae618", blank when absent
	Codename string    // "Aluminium Automaton"
	Runtime  string    // "go1.23.2"
	GOOS     string    // "linux"
	GOARCH   string    // "amd64"
	Builder  string    // "jb@build.example.com"
	Date     time.Time // zero when absent
	Extra    []string  // "foo", "bar"
}

func (v VersionParts) Environment() string {
	if v.Commit != "" || strings.HasPrefix(v.Tag, unknownVersion) {
		return "Development"
	}
	if strings.Contains(v.Tag, "-rc.") {
		return "Candidate"
	}
	if strings.Contains(v.Tag, "-") {
		return "Beta"
	}
	return "Stable"
}

// ParseVersion splits a long version string as produced by this package.
func ParseVersion(line string) (VersionParts, error) {
	m := longVersionRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return VersionParts{}, errors.New("unintelligible version string")
	}

	v := VersionParts{
		Version:  m[1],
		Tag:      m[1],
		Codename: m[2],
		Runtime:  m[3],
		GOOS:     m[4],
		GOARCH:   m[5],
		Builder:  m[6],
	}
	if loc := gitExtraRE.FindStringSubmatchIndex(v.Version); loc != nil {
		v.Tag = v.Version[:loc[0]]
		v.Commit = v.Version[loc[2]:loc[3]]
	}
	if m[7] != "" {
		date, err := time.Parse(dateFormat, m[7])
		if err != nil {
			return VersionParts{}, err
		}
		v.Date = date
	}
	if m[8] != "" {
		tags := strings.Split(m[8], ",")
		for i := range tags {
			tags[i] = strings.TrimSpace(tags[i])
		}
		v.Extra = tags
	}
	return v, nil
}
