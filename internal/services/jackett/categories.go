// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"slices"
	"strconv"
	"strings"
)

var categoryNames = map[int]string{
	CategoryMovies:        "Movies",
	CategoryMoviesSD:      "Movies/SD",
	CategoryMoviesHD:      "Movies/HD",
	CategoryMovies4K:      "Movies/UHD",
	CategoryMovies3D:      "Movies/3D",
	CategoryTV:            "TV",
	CategoryTVSD:          "TV/SD",
	CategoryTVHD:          "TV/HD",
	CategoryTV4K:          "TV/UHD",
	CategoryTVSport:       "TV/Sport",
	CategoryTVAnime:       "TV/Anime",
	CategoryTVDocumentary: "TV/Documentary",
	CategoryXXX:           "XXX",
	CategoryXXXDVD:        "XXX/DVD",
	CategoryXXXWMV:        "XXX/WMV",
	CategoryXXXXviD:       "XXX/XviD",
	CategoryXXXx264:       "XXX/x264",
	CategoryXXXPack:       "XXX/Pack",
	CategoryXXXImageSet:   "XXX/ImageSet",
	CategoryXXXOther:      "XXX/Other",
	CategoryAudio:         "Audio",
	CategoryPC:            "PC",
	CategoryBooks:         "Books",
	CategoryBooksEbook:    "Books/EBook",
	CategoryBooksComics:   "Books/Comics",
}

// CategoryName returns the standard Torznab name for a category id.
// Unknown sub-categories fall back to their parent (e.g. 5010 -> TV).
func CategoryName(id int) (string, bool) {
	if name, ok := categoryNames[id]; ok {
		return name, true
	}
	if parent := id - id%1000; parent != id {
		if name, ok := categoryNames[parent]; ok {
			return name, true
		}
	}
	return "", false
}

// CategoryLookup returns a lookup that prefers the provided overrides (typically an
// indexer's own category names) over the standard table.
func CategoryLookup(overrides map[int]string) func(int) (string, bool) {
	return func(id int) (string, bool) {
		if name, ok := overrides[id]; ok && name != "" {
			return name, true
		}
		return CategoryName(id)
	}
}

// Categories lists the standard categories ordered by id.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryNames))
	for id, name := range categoryNames {
		out = append(out, CategoryInfo{ID: id, Name: name})
	}
	slices.SortFunc(out, func(a, b CategoryInfo) int { return a.ID - b.ID })
	return out
}

// ParseCategoryID extracts a category id from indexer category strings such as
// "5000", "5040 TV/HD" or "TV > HD".
func ParseCategoryID(category string) int {
	parts := strings.Split(strings.TrimSpace(category), " ")
	if len(parts) > 0 {
		if id, err := strconv.Atoi(parts[0]); err == nil {
			return id
		}
	}

	categoryMap := map[string]int{
		"movies": CategoryMovies,
		"tv":     CategoryTV,
		"xxx":    CategoryXXX,
		"audio":  CategoryAudio,
		"pc":     CategoryPC,
		"books":  CategoryBooks,
	}

	categoryLower := strings.ToLower(category)
	for _, name := range []string{"movies", "tv", "xxx", "audio", "pc", "books"} {
		if strings.Contains(categoryLower, name) {
			return categoryMap[name]
		}
	}

	return 0
}
