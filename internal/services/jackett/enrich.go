// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"github.com/moistari/rls"
)

// EnrichResults fills release metadata parsed from the title where the indexer did not
// provide it, and resolves missing category ids. Results are modified in place.
func EnrichResults(results []SearchResult) {
	for i := range results {
		r := &results[i]

		if r.CategoryID == 0 && r.CategoryName != "" {
			r.CategoryID = ParseCategoryID(r.CategoryName)
		}

		if r.Title == "" {
			continue
		}
		if r.Source != "" && r.Collection != "" && r.Group != "" && r.Resolution != "" {
			continue
		}

		parsed := rls.ParseString(r.Title)
		if r.Source == "" {
			r.Source = parsed.Source
		}
		if r.Collection == "" {
			r.Collection = parsed.Collection
		}
		if r.Group == "" {
			r.Group = parsed.Group
		}
		if r.Resolution == "" {
			r.Resolution = parsed.Resolution
		}
	}
}
