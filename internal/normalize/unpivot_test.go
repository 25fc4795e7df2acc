package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpivot_NilConfigIsNoOp(t *testing.T) {
	src := newRowsTable([]string{"a"}, Row{"a": 1})
	report := &Report{}
	out, deferred := Unpivot(src, "widget", nil, report)
	assert.False(t, deferred)
	assert.Same(t, src, out)
}

func TestUnpivot_AlreadyMeltedShortCircuits(t *testing.T) {
	cfg := &UnnestConfig{IDVars: []string{"id"}, ValueVars: []string{"x", "y"}, VarName: "var", ValueName: "val"}
	src := newRowsTable([]string{"id", "var", "val"}, Row{"id": 1, "var": "x", "val": "v"})
	report := &Report{}
	out, deferred := Unpivot(src, "widget", cfg, report)
	assert.False(t, deferred)
	assert.Same(t, src, out)
	assert.False(t, report.HasErrors())
}

func TestUnpivot_MissingIDVarIsHardError(t *testing.T) {
	cfg := &UnnestConfig{IDVars: []string{"id"}, ValueVars: []string{"x"}, VarName: "var", ValueName: "val"}
	src := newRowsTable([]string{"x"}, Row{"x": 1})
	report := &Report{}
	_, deferred := Unpivot(src, "widget", cfg, report)
	assert.False(t, deferred)
	require.True(t, report.HasErrors())
	assert.Equal(t, KindUnnestMissingIDVar, report.Errors[0].Kind)
}

func TestUnpivot_MissingValueVarDefers(t *testing.T) {
	cfg := &UnnestConfig{IDVars: []string{"id"}, ValueVars: []string{"x"}, VarName: "var", ValueName: "val"}
	src := newRowsTable([]string{"id"}, Row{"id": 1})
	report := &Report{}
	out, deferred := Unpivot(src, "widget", cfg, report)
	assert.True(t, deferred)
	assert.Same(t, src, out)
	assert.False(t, report.HasErrors())
	assert.True(t, report.HasWarnings())
}

func TestUnpivot_Melts(t *testing.T) {
	cfg := &UnnestConfig{IDVars: []string{"id"}, ValueVars: []string{"x", "y"}, VarName: "var", ValueName: "val"}
	src := newRowsTable([]string{"id", "x", "y"}, Row{"id": 1, "x": "a", "y": "b"})
	report := &Report{}
	out, deferred := Unpivot(src, "widget", cfg, report)
	require.False(t, deferred)
	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, "x", out.Rows[0]["var"])
	assert.Equal(t, "a", out.Rows[0]["val"])
	assert.Equal(t, "y", out.Rows[1]["var"])
	assert.Equal(t, "b", out.Rows[1]["val"])
}
