// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import (
	"runtime"
)

// Set during build via ldflags
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Print returns a human readable version string.
func Print() string {
	out := Version
	if Commit != "" {
		out += " (" + Commit + ")"
	}
	if Date != "" {
		out += " built " + Date
	}
	return out + " " + runtime.GOOS + "/" + runtime.GOARCH
}
