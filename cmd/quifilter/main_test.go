// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/quifilter/internal/filters"
)

func TestDescribeByteOperands(t *testing.T) {
	tests := []struct {
		name     string
		filters  []filters.ColumnFilter
		expected []string
	}{
		{
			name: "size_greater",
			filters: []filters.ColumnFilter{
				{ColumnID: "size", Operation: filters.OperationGreater, Value: "1", SizeUnit: filters.SizeUnitGiB},
			},
			expected: []string{"filter 0 (size gt): 1.0 GiB"},
		},
		{
			name: "size_between",
			filters: []filters.ColumnFilter{
				{ColumnID: "size", Operation: filters.OperationBetween, Value: "100", Value2: "512", SizeUnit: filters.SizeUnitMiB},
			},
			expected: []string{"filter 0 (size between): 100 MiB .. 512 MiB"},
		},
		{
			name: "speed_has_rate_suffix",
			filters: []filters.ColumnFilter{
				{ColumnID: "ratio", Operation: filters.OperationGreater, Value: "2"},
				{ColumnID: "dlspeed", Operation: filters.OperationLess, Value: "5", SpeedUnit: filters.SpeedUnitMiBps},
			},
			expected: []string{"filter 1 (dlspeed lt): 5.0 MiB/s"},
		},
		{
			name: "out_of_range_filters_are_skipped",
			filters: []filters.ColumnFilter{
				{ColumnID: "size", Operation: filters.OperationGreater, Value: "1e10", SizeUnit: filters.SizeUnitTiB},
				{ColumnID: "size", Operation: filters.OperationLess, Value: "500"},
			},
			expected: []string{"filter 1 (size lt): 500 B"},
		},
		{
			name: "non_byte_columns",
			filters: []filters.ColumnFilter{
				{ColumnID: "name", Operation: filters.OperationContains, Value: "ubuntu"},
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			compilation := filters.CompileAll(tt.filters, filters.ConnectiveAnd)
			got := describeByteOperands(filters.DefaultRegistry(), tt.filters, compilation.Dropped)
			assert.Equal(t, tt.expected, got)
		})
	}
}
