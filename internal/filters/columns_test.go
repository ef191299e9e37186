// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	t.Run("column_types", func(t *testing.T) {
		assert.Equal(t, ColumnTypeSize, r.ColumnType("size"))
		assert.Equal(t, ColumnTypeEnum, r.ColumnType("state"))
		assert.Equal(t, ColumnTypeDate, r.ColumnType("added_on"))
		assert.Equal(t, ColumnTypeString, r.ColumnType("no_such_column"))
		assert.Equal(t, ColumnTypeNumber, ColumnTypeOf("num_seeds"))
	})

	t.Run("field_names_apply_remap", func(t *testing.T) {
		field, ok := r.FieldName("num_seeds")
		require.True(t, ok)
		assert.Equal(t, "NumComplete", field)

		field, ok = r.FieldName("name")
		require.True(t, ok)
		assert.Equal(t, "Name", field)

		_, ok = r.FieldName("no_such_column")
		assert.False(t, ok)

		assert.Equal(t, "num_incomplete", r.Remapped("num_leechs"))
		assert.Equal(t, "ratio", r.Remapped("ratio"))
	})

	t.Run("columns_sorted", func(t *testing.T) {
		columns := r.Columns()
		require.NotEmpty(t, columns)
		for i := 1; i < len(columns); i++ {
			assert.Less(t, columns[i-1].ID, columns[i].ID)
		}
	})

	t.Run("suggest", func(t *testing.T) {
		assert.Equal(t, "", r.Suggest(""))
		assert.Equal(t, "", r.Suggest("zzzzzzzzzzzzzzzz"))
		assert.NotEmpty(t, r.Suggest("ratio"))
	})
}

func TestNewRegistry_Custom(t *testing.T) {
	r := NewRegistry([]Column{
		{ID: "title", Field: "Title", Type: ColumnTypeString},
		{ID: "peers", Field: "Peers", Type: ColumnTypeNumber},
		{ID: "seeders", Field: "Seeders", Type: ColumnTypeNumber},
	}, map[string]string{"peers": "seeders"})

	c := NewCompiler(r)
	assert.Same(t, r, c.Registry())

	got, err := c.Compile(ColumnFilter{ColumnID: "peers", Operation: OperationGreater, Value: "5"})
	require.NoError(t, err)
	assert.Equal(t, "Seeders > 5", got)

	got, err = c.Compile(ColumnFilter{ColumnID: "title", Operation: OperationEqual, Value: "7"})
	require.NoError(t, err)
	assert.Equal(t, "Title == 7", got)
}
