// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"slices"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Column describes how a torrent list column is typed and which field of the
// expression environment it maps to.
type Column struct {
	ID    string     `json:"id"`
	Field string     `json:"field"`
	Type  ColumnType `json:"type"`
	// AlwaysQuoted columns never emit a bare numeric literal, even for numeric-looking values.
	AlwaysQuoted bool `json:"alwaysQuoted,omitempty"`
	// CastToString marks fields that are not natively strings in the expression environment.
	CastToString bool `json:"castToString,omitempty"`
}

// Registry maps column ids to their type and expression field. It is read-only once built.
type Registry struct {
	columns map[string]Column
	remap   map[string]string
}

// NewRegistry builds a registry. remap overrides which column's field is filtered against
// for a given column id; the type of the original id is kept.
func NewRegistry(columns []Column, remap map[string]string) *Registry {
	r := &Registry{
		columns: make(map[string]Column, len(columns)),
		remap:   make(map[string]string, len(remap)),
	}
	for _, c := range columns {
		r.columns[c.ID] = c
	}
	for from, to := range remap {
		r.remap[from] = to
	}
	return r
}

// ColumnType returns the semantic type of a column, falling back to string for unknown ids.
func (r *Registry) ColumnType(columnID string) ColumnType {
	if c, ok := r.columns[columnID]; ok {
		return c.Type
	}
	return ColumnTypeString
}

// FieldName resolves the expression field a column is filtered against. The remap table is
// applied first. ok is false for unknown columns.
func (r *Registry) FieldName(columnID string) (string, bool) {
	c, ok := r.columns[r.effectiveID(columnID)]
	if !ok || c.Field == "" {
		return "", false
	}
	return c.Field, true
}

// Column returns the registry entry for columnID without remapping.
func (r *Registry) Column(columnID string) (Column, bool) {
	c, ok := r.columns[columnID]
	return c, ok
}

// Columns returns all registered columns sorted by id.
func (r *Registry) Columns() []Column {
	out := make([]Column, 0, len(r.columns))
	for _, c := range r.columns {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Column) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Remapped returns the column id whose field is used when filtering columnID.
func (r *Registry) Remapped(columnID string) string {
	return r.effectiveID(columnID)
}

func (r *Registry) effectiveID(columnID string) string {
	if to, ok := r.remap[columnID]; ok {
		return to
	}
	return columnID
}

// Suggest returns the closest known column id for an unknown one, or "" when nothing is close.
func (r *Registry) Suggest(columnID string) string {
	if columnID == "" {
		return ""
	}
	ids := make([]string, 0, len(r.columns))
	for id := range r.columns {
		ids = append(ids, id)
	}
	ranks := fuzzy.RankFindFold(columnID, ids)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// torrentColumns is the column table of the torrent list. Field names are the exported
// fields of qbt.Torrent that the expression runtime sees.
var torrentColumns = []Column{
	{ID: "name", Field: "Name", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "size", Field: "Size", Type: ColumnTypeSize},
	{ID: "total_size", Field: "TotalSize", Type: ColumnTypeSize},
	{ID: "progress", Field: "Progress", Type: ColumnTypePercentage},
	{ID: "state", Field: "State", Type: ColumnTypeEnum, AlwaysQuoted: true, CastToString: true},
	{ID: "num_seeds", Field: "NumSeeds", Type: ColumnTypeNumber},
	{ID: "num_complete", Field: "NumComplete", Type: ColumnTypeNumber},
	{ID: "num_leechs", Field: "NumLeechs", Type: ColumnTypeNumber},
	{ID: "num_incomplete", Field: "NumIncomplete", Type: ColumnTypeNumber},
	{ID: "dlspeed", Field: "DlSpeed", Type: ColumnTypeSpeed},
	{ID: "upspeed", Field: "UpSpeed", Type: ColumnTypeSpeed},
	{ID: "dl_limit", Field: "DlLimit", Type: ColumnTypeSpeed},
	{ID: "up_limit", Field: "UpLimit", Type: ColumnTypeSpeed},
	{ID: "eta", Field: "ETA", Type: ColumnTypeDuration},
	{ID: "ratio", Field: "Ratio", Type: ColumnTypeNumber},
	{ID: "ratio_limit", Field: "RatioLimit", Type: ColumnTypeNumber},
	{ID: "max_ratio", Field: "MaxRatio", Type: ColumnTypeNumber},
	{ID: "popularity", Field: "Popularity", Type: ColumnTypeNumber},
	{ID: "availability", Field: "Availability", Type: ColumnTypeNumber},
	{ID: "priority", Field: "Priority", Type: ColumnTypeNumber},
	{ID: "trackers_count", Field: "TrackersCount", Type: ColumnTypeNumber},
	{ID: "category", Field: "Category", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "tags", Field: "Tags", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "tracker", Field: "Tracker", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "save_path", Field: "SavePath", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "download_path", Field: "DownloadPath", Type: ColumnTypeString},
	{ID: "content_path", Field: "ContentPath", Type: ColumnTypeString},
	{ID: "added_on", Field: "AddedOn", Type: ColumnTypeDate},
	{ID: "completion_on", Field: "CompletionOn", Type: ColumnTypeDate},
	{ID: "last_activity", Field: "LastActivity", Type: ColumnTypeDate},
	{ID: "seen_complete", Field: "SeenComplete", Type: ColumnTypeDate},
	{ID: "downloaded", Field: "Downloaded", Type: ColumnTypeSize},
	{ID: "uploaded", Field: "Uploaded", Type: ColumnTypeSize},
	{ID: "downloaded_session", Field: "DownloadedSession", Type: ColumnTypeSize},
	{ID: "uploaded_session", Field: "UploadedSession", Type: ColumnTypeSize},
	{ID: "amount_left", Field: "AmountLeft", Type: ColumnTypeSize},
	{ID: "completed", Field: "Completed", Type: ColumnTypeSize},
	{ID: "time_active", Field: "TimeActive", Type: ColumnTypeDuration},
	{ID: "seeding_time", Field: "SeedingTime", Type: ColumnTypeDuration},
	{ID: "reannounce", Field: "Reannounce", Type: ColumnTypeDuration},
	{ID: "infohash_v1", Field: "InfohashV1", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "infohash_v2", Field: "InfohashV2", Type: ColumnTypeString, AlwaysQuoted: true},
	{ID: "private", Field: "Private", Type: ColumnTypeBoolean},
	{ID: "auto_tmm", Field: "AutoManaged", Type: ColumnTypeBoolean},
	{ID: "force_start", Field: "ForceStart", Type: ColumnTypeBoolean},
	{ID: "super_seeding", Field: "SuperSeeding", Type: ColumnTypeBoolean},
	{ID: "seq_dl", Field: "SequentialDownload", Type: ColumnTypeBoolean},
}

// Connected peer counters are filtered against the swarm totals so filtering agrees with sorting.
var torrentRemap = map[string]string{
	"num_seeds":  "num_complete",
	"num_leechs": "num_incomplete",
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide torrent column registry.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(torrentColumns, torrentRemap)
	})
	return defaultRegistry
}
