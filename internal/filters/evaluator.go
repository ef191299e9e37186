// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/autobrr/quifilter/internal/services/jackett"
)

// CategoryLookup resolves a category id to its display name.
type CategoryLookup func(id int) (string, bool)

// SearchColumn identifies a filterable column of indexer search results.
type SearchColumn string

const (
	SearchColumnTitle       SearchColumn = "title"
	SearchColumnIndexer     SearchColumn = "indexer"
	SearchColumnSize        SearchColumn = "size"
	SearchColumnSeeders     SearchColumn = "seeders"
	SearchColumnLeechers    SearchColumn = "leechers"
	SearchColumnCategory    SearchColumn = "category"
	SearchColumnPublishDate SearchColumn = "publish_date"
	SearchColumnFreeleech   SearchColumn = "freeleech"
	SearchColumnSource      SearchColumn = "source"
	SearchColumnCollection  SearchColumn = "collection"
	SearchColumnGroup       SearchColumn = "group"
	SearchColumnResolution  SearchColumn = "resolution"
	SearchColumnInfoHash    SearchColumn = "infohash"
)

type searchKind int

const (
	searchKindNumber searchKind = iota
	searchKindSize
	searchKindDate
	searchKindFactor
	searchKindText
)

type searchAccessor struct {
	kind   searchKind
	number func(r *jackett.SearchResult) float64
	date   func(r *jackett.SearchResult) (time.Time, bool)
	text   func(r *jackett.SearchResult, lookup CategoryLookup) (string, bool)
}

func optionalText(get func(r *jackett.SearchResult) string) func(*jackett.SearchResult, CategoryLookup) (string, bool) {
	return func(r *jackett.SearchResult, _ CategoryLookup) (string, bool) {
		v := get(r)
		return v, v != ""
	}
}

var searchColumns = map[SearchColumn]searchAccessor{
	SearchColumnTitle:      {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.Title })},
	SearchColumnIndexer:    {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.Indexer })},
	SearchColumnSource:     {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.Source })},
	SearchColumnCollection: {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.Collection })},
	SearchColumnGroup:      {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.Group })},
	SearchColumnResolution: {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.Resolution })},
	SearchColumnInfoHash:   {kind: searchKindText, text: optionalText(func(r *jackett.SearchResult) string { return r.InfoHashV1 })},
	SearchColumnCategory:   {kind: searchKindText, text: categoryText},
	SearchColumnSize:       {kind: searchKindSize, number: func(r *jackett.SearchResult) float64 { return float64(r.Size) }},
	SearchColumnSeeders:    {kind: searchKindNumber, number: func(r *jackett.SearchResult) float64 { return float64(r.Seeders) }},
	SearchColumnLeechers:   {kind: searchKindNumber, number: func(r *jackett.SearchResult) float64 { return float64(r.Leechers) }},
	SearchColumnFreeleech:  {kind: searchKindFactor, number: func(r *jackett.SearchResult) float64 { return r.DownloadVolumeFactor }},
	SearchColumnPublishDate: {kind: searchKindDate, date: func(r *jackett.SearchResult) (time.Time, bool) {
		return r.PublishDate, !r.PublishDate.IsZero()
	}},
}

func categoryText(r *jackett.SearchResult, lookup CategoryLookup) (string, bool) {
	if lookup != nil {
		if name, ok := lookup(r.CategoryID); ok && name != "" {
			return name, true
		}
	}
	return r.CategoryName, r.CategoryName != ""
}

// SearchColumns lists the column ids understood by MatchSearchResult.
func SearchColumns() []SearchColumn {
	return []SearchColumn{
		SearchColumnTitle,
		SearchColumnIndexer,
		SearchColumnSize,
		SearchColumnSeeders,
		SearchColumnLeechers,
		SearchColumnCategory,
		SearchColumnPublishDate,
		SearchColumnFreeleech,
		SearchColumnSource,
		SearchColumnCollection,
		SearchColumnGroup,
		SearchColumnResolution,
		SearchColumnInfoHash,
	}
}

// MatchSearchResult evaluates f against an indexer search result.
//
// Unlike the compiler, malformed operands, unknown columns and unknown operations match every
// record: a broken local filter shows too much rather than nothing. Records lacking the
// filtered field never match.
func MatchSearchResult(result jackett.SearchResult, f ColumnFilter, lookup CategoryLookup) bool {
	accessor, ok := searchColumns[SearchColumn(f.ColumnID)]
	if !ok {
		return true
	}

	switch accessor.kind {
	case searchKindNumber:
		return matchNumber(accessor.number(&result), f, false)
	case searchKindSize:
		return matchNumber(accessor.number(&result), f, true)
	case searchKindDate:
		value, present := accessor.date(&result)
		return matchDate(value, present, f)
	case searchKindFactor:
		return matchFactor(accessor.number(&result), f)
	case searchKindText:
		value, present := accessor.text(&result, lookup)
		return matchText(value, present, f)
	}
	return true
}

// FilterSearchResults keeps the results that match every filter.
func FilterSearchResults(results []jackett.SearchResult, filters []ColumnFilter, lookup CategoryLookup) []jackett.SearchResult {
	if len(filters) == 0 {
		return results
	}

	filtered := make([]jackett.SearchResult, 0, len(results))
resultsLoop:
	for _, result := range results {
		for _, f := range filters {
			if !MatchSearchResult(result, f, lookup) {
				continue resultsLoop
			}
		}
		filtered = append(filtered, result)
	}

	log.Debug().
		Int("inputResults", len(results)).
		Int("filteredResults", len(filtered)).
		Int("filters", len(filters)).
		Msg("Filtered search results")

	return filtered
}

func matchNumber(actual float64, f ColumnFilter, sized bool) bool {
	parse := func(value string, unit SizeUnit) (float64, bool) {
		if sized {
			bytes, err := SizeToBytes(value, unit)
			return float64(bytes), err == nil
		}
		n, err := ParseNumber(value)
		return n, err == nil
	}

	target, ok := parse(f.Value, f.SizeUnit)
	if !ok {
		log.Trace().Str("column", f.ColumnID).Str("value", f.Value).Msg("Ignoring unparsable search filter operand")
		return true
	}

	switch f.Operation {
	case OperationEqual:
		return actual == target
	case OperationNotEqual:
		return actual != target
	case OperationGreater:
		return actual > target
	case OperationGreaterOrEqual:
		return actual >= target
	case OperationLess:
		return actual < target
	case OperationLessOrEqual:
		return actual <= target
	case OperationBetween:
		upper, ok := parse(f.Value2, f.secondSizeUnit())
		if !ok {
			return true
		}
		return actual >= target && actual <= upper
	}
	return true
}

func matchDate(actual time.Time, present bool, f ColumnFilter) bool {
	if !present {
		return false
	}

	target, err := ParseDate(f.Value)
	if err != nil {
		return true
	}

	switch f.Operation {
	case OperationEqual:
		return sameDay(actual, target)
	case OperationNotEqual:
		return !sameDay(actual, target)
	case OperationGreater:
		return actual.UnixMilli() > target.UnixMilli()
	case OperationGreaterOrEqual:
		return actual.UnixMilli() >= target.UnixMilli()
	case OperationLess:
		return actual.UnixMilli() < target.UnixMilli()
	case OperationLessOrEqual:
		return actual.UnixMilli() <= target.UnixMilli()
	case OperationBetween:
		upper, err := ParseDate(f.Value2)
		if err != nil {
			return true
		}
		return actual.UnixMilli() >= target.UnixMilli() && actual.UnixMilli() <= upper.UnixMilli()
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// matchFactor evaluates the freeleech column. Each accepted token is a named state
// or an exact factor; the record matches when any token does.
func matchFactor(factor float64, f ColumnFilter) bool {
	tokens := splitTokens(f.Value)
	if len(tokens) == 0 {
		return true
	}

	matched := false
	for _, token := range tokens {
		if factorMatches(token, factor) {
			matched = true
			break
		}
	}

	if f.Operation == OperationNotEqual {
		return !matched
	}
	return matched
}

func factorMatches(token string, factor float64) bool {
	switch strings.ToLower(token) {
	case "true", "free", "freeleech":
		return factor == 0
	case "partial":
		return factor > 0 && factor < 1
	case "false", "normal":
		return factor >= 1
	}
	n, err := ParseNumber(token)
	if err != nil {
		return false
	}
	return factor == n
}

func matchText(actual string, present bool, f ColumnFilter) bool {
	if !present {
		return false
	}

	caseSensitive := f.CaseSensitive != nil && *f.CaseSensitive
	fold := cases.Fold()
	normalize := func(s string) string {
		if caseSensitive {
			return s
		}
		return fold.String(s)
	}

	value := normalize(actual)
	switch f.Operation {
	case OperationEqual:
		return anyToken(f.Value, func(token string) bool { return value == normalize(token) })
	case OperationContains:
		return anyToken(f.Value, func(token string) bool { return strings.Contains(value, normalize(token)) })
	case OperationNotEqual:
		return value != normalize(f.Value)
	case OperationNotContains:
		return !strings.Contains(value, normalize(f.Value))
	case OperationStartsWith:
		return strings.HasPrefix(value, normalize(f.Value))
	case OperationEndsWith:
		return strings.HasSuffix(value, normalize(f.Value))
	}
	return true
}

func anyToken(value string, match func(string) bool) bool {
	tokens := splitTokens(value)
	if len(tokens) == 0 {
		return match(value)
	}
	for _, token := range tokens {
		if match(token) {
			return true
		}
	}
	return false
}

func splitTokens(value string) []string {
	parts := strings.Split(value, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
