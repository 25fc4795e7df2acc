package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRowsTable(cols []string, rows ...Row) *Table {
	t := NewTable(cols)
	t.Rows = rows
	return t
}

func TestDropDuplicates_Disabled(t *testing.T) {
	src := newRowsTable([]string{"a"}, Row{"a": 1}, Row{"a": 1})
	report := &Report{}
	out := DropDuplicates(src, "widget", DropDuplicatesConfig{Enabled: false}, report)
	assert.Equal(t, 2, out.NumRows())
	assert.False(t, report.HasErrors())
}

func TestDropDuplicates_AllColumns(t *testing.T) {
	src := newRowsTable([]string{"a", "b"},
		Row{"a": 1, "b": "x"},
		Row{"a": 1, "b": "x"},
		Row{"a": 2, "b": "y"},
	)
	report := &Report{}
	out := DropDuplicates(src, "widget", DropDuplicatesConfig{Enabled: true, AllColumns: true}, report)
	assert.Equal(t, 2, out.NumRows())
}

func TestDropDuplicates_SubsetMissingColumnWarns(t *testing.T) {
	src := newRowsTable([]string{"a"}, Row{"a": 1})
	report := &Report{}
	out := DropDuplicates(src, "widget", DropDuplicatesConfig{Enabled: true, Subset: []string{"nope"}}, report)
	assert.Equal(t, 1, out.NumRows())
	assert.True(t, report.HasWarnings())
}

func TestDropDuplicates_EmptySubsetIsError(t *testing.T) {
	src := newRowsTable([]string{"a"}, Row{"a": 1})
	report := &Report{}
	out := DropDuplicates(src, "widget", DropDuplicatesConfig{Enabled: true, Subset: []string{}}, report)
	assert.Equal(t, 1, out.NumRows())
	assert.True(t, report.HasErrors())
}

func TestCheckFunctionalDependency(t *testing.T) {
	t.Run("satisfied when determinant uniquely maps", func(t *testing.T) {
		src := newRowsTable([]string{"id", "name"},
			Row{"id": 1, "name": "a"},
			Row{"id": 2, "name": "b"},
		)
		report := &Report{}
		ok := CheckFunctionalDependency(src, "widget", []string{"id"}, true, report)
		assert.True(t, ok)
		assert.False(t, report.HasErrors())
	})

	t.Run("violation raises error when raiseError is true", func(t *testing.T) {
		src := newRowsTable([]string{"id", "name"},
			Row{"id": 1, "name": "a"},
			Row{"id": 1, "name": "b"},
		)
		report := &Report{}
		ok := CheckFunctionalDependency(src, "widget", []string{"id"}, true, report)
		assert.False(t, ok)
		assert.True(t, report.HasErrors())
		assert.False(t, report.HasWarnings())
	})

	t.Run("violation warns when raiseError is false", func(t *testing.T) {
		src := newRowsTable([]string{"id", "name"},
			Row{"id": 1, "name": "a"},
			Row{"id": 1, "name": "b"},
		)
		report := &Report{}
		ok := CheckFunctionalDependency(src, "widget", []string{"id"}, false, report)
		assert.False(t, ok)
		assert.False(t, report.HasErrors())
		assert.True(t, report.HasWarnings())
	})

	t.Run("identical duplicate rows are not a violation", func(t *testing.T) {
		src := newRowsTable([]string{"id", "name"},
			Row{"id": 1, "name": "a"},
			Row{"id": 1, "name": "a"},
		)
		report := &Report{}
		ok := CheckFunctionalDependency(src, "widget", []string{"id"}, true, report)
		assert.True(t, ok)
	})
}

func TestDropDuplicates_FDCheckStillDrops(t *testing.T) {
	src := newRowsTable([]string{"id", "name"},
		Row{"id": 1, "name": "a"},
		Row{"id": 1, "name": "b"},
	)
	report := &Report{}
	out := DropDuplicates(src, "widget", DropDuplicatesConfig{
		Enabled: true, Subset: []string{"id"}, FDCheck: true, StrictFD: false,
	}, report)
	assert.Equal(t, 1, out.NumRows(), "drop still proceeds even after an FD warning")
	assert.True(t, report.HasWarnings())
	assert.False(t, report.HasErrors())
}
