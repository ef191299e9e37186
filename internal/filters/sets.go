// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FilterSet is a named, saved list of column filters.
type FilterSet struct {
	Name       string         `json:"name" yaml:"name"`
	Connective string         `json:"connective,omitempty" yaml:"connective,omitempty"`
	Filters    []ColumnFilter `json:"filters" yaml:"filters"`
}

type filterSetFile struct {
	Sets []FilterSet `yaml:"sets"`
}

// ParseFilterSets reads filter sets from YAML or JSON. The document is either
// {"sets": [...]}, a list of sets, or a bare list of filters.
func ParseFilterSets(data []byte) ([]FilterSet, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var file filterSetFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Sets) > 0 {
		return normalizeSets(file.Sets)
	}

	var sets []FilterSet
	if err := yaml.Unmarshal(data, &sets); err == nil && len(sets) > 0 && (sets[0].Name != "" || len(sets[0].Filters) > 0) {
		return normalizeSets(sets)
	}

	var list []ColumnFilter
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "decode filter sets")
	}
	return normalizeSets([]FilterSet{{Name: "default", Filters: list}})
}

// LoadFilterSets reads filter sets from a file. A missing file yields no sets.
func LoadFilterSets(path string) ([]FilterSet, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("No filter sets file found")
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read filter sets %s", path)
	}

	sets, err := ParseFilterSets(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse filter sets %s", path)
	}

	log.Debug().Str("path", path).Int("sets", len(sets)).Msg("Loaded filter sets")
	return sets, nil
}

// FindFilterSet returns the set with the given name, compared case-insensitively.
func FindFilterSet(sets []FilterSet, name string) (FilterSet, bool) {
	idx := slices.IndexFunc(sets, func(s FilterSet) bool {
		return strings.EqualFold(s.Name, strings.TrimSpace(name))
	})
	if idx < 0 {
		return FilterSet{}, false
	}
	return sets[idx], true
}

func normalizeSets(sets []FilterSet) ([]FilterSet, error) {
	seen := make(map[string]struct{}, len(sets))
	for i := range sets {
		sets[i].Name = strings.TrimSpace(sets[i].Name)
		if sets[i].Name == "" {
			return nil, errors.Errorf("filter set %d has no name", i)
		}
		key := strings.ToLower(sets[i].Name)
		if _, dup := seen[key]; dup {
			return nil, errors.Errorf("duplicate filter set %q", sets[i].Name)
		}
		seen[key] = struct{}{}

		if _, ok := ParseConnective(sets[i].Connective); !ok {
			return nil, errors.Errorf("filter set %q: unknown connective %q", sets[i].Name, sets[i].Connective)
		}
	}
	return sets, nil
}
