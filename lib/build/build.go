// Copyright (C) 2026 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package build carries the version and build details of the binary.
package build

import (
	"fmt"
	"log"
	"regexp"
	"runtime"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"
)

const unknownVersion = "unknown-dev"

var (
	// Injected by build script
	Version = unknownVersion
	Host    = "unknown"
	User    = "unknown"
	Stamp   = "0"

	// Static
	Codename = "Aluminium Automaton"

	// Set by init()
	Date        time.Time
	IsRelease   bool
	IsCandidate bool
	IsBeta      bool
	LongVersion string
	Revision    string // VCS revision embedded by the go tool, if any

	// Set by Go build tags
	Tags []string

	// AllowedVersionExp matches what git describe gives for a tag, with
	// optional prerelease and build suffixes.
	AllowedVersionExp = regexp.MustCompile(`^v\d+\.\d+\.\d+(-[a-z0-9]+(\.\d+)*)*(\+\d+-g[0-9a-f]+|\+[0-9a-z]+)?(-[^\s]+)?$`)

	releaseExp = regexp.MustCompile(`^v\d+\.\d+\.\d+(-[a-z]+[\d.]+)?$`)
)

func init() {
	if Version != unknownVersion && !AllowedVersionExp.MatchString(Version) {
		log.Fatalf("Invalid version string %q;\n\tdoes not match regexp %v", Version, AllowedVersionExp)
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		Revision = vcsRevision(info)
	}
	setBuildData()
}

func vcsRevision(info *debug.BuildInfo) string {
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

func setBuildData() {
	// "v0.1.2" is a release, as is one with a suffix like "-beta3.47" or
	// "-rc.1". A dash makes it a beta.
	IsRelease = releaseExp.MatchString(Version)
	IsCandidate = strings.Contains(Version, "-rc.")
	IsBeta = strings.Contains(Version, "-")

	stamp, _ := strconv.ParseInt(Stamp, 10, 64)
	Date = time.Unix(stamp, 0)

	version := Version
	if version == unknownVersion && Revision != "" {
		version += "+" + Revision
	}
	LongVersion = fmt.Sprintf(`fsmtok %s "%s" (%s %s-%s) %s@%s %s`,
		version, Codename, runtime.Version(), runtime.GOOS, runtime.GOARCH,
		User, Host, Date.UTC().Format(dateFormat))
	if len(Tags) > 0 {
		LongVersion += " [" + strings.Join(TagsList(), ", ") + "]"
	}
}

// TagsList returns the build tags, sorted.
func TagsList() []string {
	tags := slices.Clone(Tags)
	slices.Sort(tags)
	return tags
}
